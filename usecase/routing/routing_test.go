package routing

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kompox/modelops/adapters/kube"
	"github.com/kompox/modelops/adapters/kube/kubefake"
	"github.com/kompox/modelops/adapters/lock"
	"github.com/kompox/modelops/adapters/store/inmem"
	"github.com/kompox/modelops/domain/model"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	k8stesting "k8s.io/client-go/testing"
)

type fixture struct {
	uc      *UseCase
	conn    *kubefake.Connector
	targets []*model.ClusterTarget
	wl      *model.Workload
}

func newFixture(t *testing.T, instances ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := inmem.NewStore().Repositories()
	f := &fixture{conn: kubefake.NewConnector()}
	for _, name := range []string{"east", "west"} {
		tgt := &model.ClusterTarget{Name: name, ProjectID: "p1", Driver: "kubeconfig"}
		if err := repos.Target.Create(ctx, tgt); err != nil {
			t.Fatal(err)
		}
		f.targets = append(f.targets, tgt)
	}
	f.wl = &model.Workload{ProjectID: "p1", Name: "iris"}
	if err := repos.Workload.Create(ctx, f.wl); err != nil {
		t.Fatal(err)
	}
	for _, id := range instances {
		s := &model.ServiceInstance{ID: id, WorkloadID: f.wl.ID, Level: "staging", Port: 9000}
		if err := repos.Instance.Create(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	f.uc = &UseCase{
		Repos:     &Repos{Target: repos.Target, Workload: repos.Workload, Instance: repos.Instance},
		Connector: f.conn,
		Locker:    lock.NewLocal(),
	}
	return f
}

// seed writes the same rule to every target.
func (f *fixture) seed(t *testing.T, routes model.RouteSet) {
	t.Helper()
	f.seedOn(t, routes, f.targets...)
}

func (f *fixture) seedOn(t *testing.T, routes model.RouteSet, targets ...*model.ClusterTarget) {
	t.Helper()
	for _, tgt := range targets {
		vs := &kube.VirtualService{
			Name:      kube.VirtualServiceName(f.wl.ID),
			Namespace: "staging",
			Hosts:     []string{"*"},
			Prefix:    "/iris/",
		}
		for _, r := range routes {
			vs.Destinations = append(vs.Destinations, kube.Destination{InstanceID: r.InstanceID, Port: 9000, Weight: r.Weight})
		}
		if _, err := f.conn.Cluster(tgt.ID).CreateVirtualService(context.Background(), vs); err != nil {
			t.Fatal(err)
		}
	}
}

func (f *fixture) live(t *testing.T, tgt *model.ClusterTarget) (model.RouteSet, bool) {
	t.Helper()
	vs, err := f.conn.Cluster(tgt.ID).GetVirtualService(context.Background(), "staging", kube.VirtualServiceName(f.wl.ID))
	if apierrors.IsNotFound(err) {
		return nil, false
	}
	if err != nil {
		t.Fatal(err)
	}
	return vs.Routes(), true
}

func countVerb(c *kubefake.Cluster, verb string) int {
	n := 0
	for _, a := range c.Dynamic.Actions() {
		if a.GetVerb() == verb {
			n++
		}
	}
	return n
}

func TestSetWritesEveryTarget(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.seed(t, model.RouteSet{{InstanceID: "a", Weight: 100}})

	want := model.RouteSet{{InstanceID: "a", Weight: 60}, {InstanceID: "b", Weight: 40}}
	out, err := f.uc.Set(context.Background(), &SetInput{WorkloadID: f.wl.ID, Level: "staging", Routes: want})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(out.Targets) != 2 {
		t.Fatalf("targets = %d", len(out.Targets))
	}
	for _, tgt := range f.targets {
		got, ok := f.live(t, tgt)
		if !ok || !reflect.DeepEqual(got, want) {
			t.Errorf("%s: routes = %v, want %v", tgt.Name, got, want)
		}
	}
}

func TestSetRejectsInvalidRoutes(t *testing.T) {
	tests := []struct {
		name   string
		routes model.RouteSet
	}{
		{"sum below 100", model.RouteSet{{InstanceID: "a", Weight: 60}, {InstanceID: "b", Weight: 30}}},
		{"sum above 100", model.RouteSet{{InstanceID: "a", Weight: 70}, {InstanceID: "b", Weight: 40}}},
		{"unknown instance", model.RouteSet{{InstanceID: "a", Weight: 50}, {InstanceID: "zzz", Weight: 50}}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "a", "b")
			prior := model.RouteSet{{InstanceID: "a", Weight: 60}, {InstanceID: "b", Weight: 40}}
			f.seed(t, prior)

			_, err := f.uc.Set(context.Background(), &SetInput{WorkloadID: f.wl.ID, Level: "staging", Routes: tt.routes})
			if !errors.Is(err, model.ErrValidation) {
				t.Fatalf("want validation error, got %v", err)
			}
			for _, tgt := range f.targets {
				if n := countVerb(f.conn.Cluster(tgt.ID), "update"); n != 0 {
					t.Errorf("%s: %d updates issued", tgt.Name, n)
				}
				if got, _ := f.live(t, tgt); !reflect.DeepEqual(got, prior) {
					t.Errorf("%s: routes changed to %v", tgt.Name, got)
				}
			}
		})
	}
}

func TestSetMissingRule(t *testing.T) {
	f := newFixture(t, "a")
	_, err := f.uc.Set(context.Background(), &SetInput{
		WorkloadID: f.wl.ID,
		Level:      "staging",
		Routes:     model.RouteSet{{InstanceID: "a", Weight: 100}},
	})
	if err == nil {
		t.Fatal("want error for missing rule")
	}
}

func TestSetRuleMissingOnOneTargetWritesNothing(t *testing.T) {
	f := newFixture(t, "a", "b")
	prior := model.RouteSet{{InstanceID: "a", Weight: 100}}
	east, west := f.targets[0], f.targets[1]
	f.seedOn(t, prior, east)

	_, err := f.uc.Set(context.Background(), &SetInput{
		WorkloadID: f.wl.ID,
		Level:      "staging",
		Routes:     model.RouteSet{{InstanceID: "a", Weight: 60}, {InstanceID: "b", Weight: 40}},
	})
	if !apierrors.IsNotFound(err) {
		t.Fatalf("want NotFound for the west rule, got %v", err)
	}
	if got, ok := f.live(t, east); !ok || !reflect.DeepEqual(got, prior) {
		t.Errorf("east routes = %v, want %v", got, prior)
	}
	if _, ok := f.live(t, west); ok {
		t.Error("west rule created")
	}
	for _, tgt := range f.targets {
		if n := countVerb(f.conn.Cluster(tgt.ID), "update"); n != 0 {
			t.Errorf("%s: %d updates issued", tgt.Name, n)
		}
	}
}

func TestSetRetriesOnConflict(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.seed(t, model.RouteSet{{InstanceID: "a", Weight: 100}})

	east := f.conn.Cluster(f.targets[0].ID)
	conflicts := 0
	east.Dynamic.PrependReactor("update", "virtualservices", func(k8stesting.Action) (bool, runtime.Object, error) {
		if conflicts < 2 {
			conflicts++
			gr := schema.GroupResource{Group: kube.VirtualServiceGVR.Group, Resource: kube.VirtualServiceGVR.Resource}
			return true, nil, apierrors.NewConflict(gr, "ing-vs", errors.New("stale"))
		}
		return false, nil, nil
	})

	want := model.RouteSet{{InstanceID: "a", Weight: 20}, {InstanceID: "b", Weight: 80}}
	if _, err := f.uc.Set(context.Background(), &SetInput{WorkloadID: f.wl.ID, Level: "staging", Routes: want}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if n := countVerb(east, "get"); n != 4 {
		t.Errorf("rule read %d times, want one check plus one per attempt (4)", n)
	}
	if got, _ := f.live(t, f.targets[0]); !reflect.DeepEqual(got, want) {
		t.Errorf("routes = %v, want %v", got, want)
	}
}

func TestRemoveRenormalizes(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	f.seed(t, model.RouteSet{{InstanceID: "a", Weight: 50}, {InstanceID: "b", Weight: 30}, {InstanceID: "c", Weight: 20}})

	out, err := f.uc.Remove(context.Background(), &RemoveInput{WorkloadID: f.wl.ID, Level: "staging", InstanceID: "b"})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := model.RouteSet{{InstanceID: "a", Weight: 71}, {InstanceID: "c", Weight: 29}}
	for i, tgt := range f.targets {
		if !reflect.DeepEqual(out.Targets[i].Routes, want) {
			t.Errorf("output %s = %v", tgt.Name, out.Targets[i].Routes)
		}
		if got, _ := f.live(t, tgt); !reflect.DeepEqual(got, want) {
			t.Errorf("%s: routes = %v, want %v", tgt.Name, got, want)
		}
	}
}

func TestRemoveLastRouteDeletesRule(t *testing.T) {
	f := newFixture(t, "a")
	f.seed(t, model.RouteSet{{InstanceID: "a", Weight: 100}})

	out, err := f.uc.Remove(context.Background(), &RemoveInput{WorkloadID: f.wl.ID, Level: "staging", InstanceID: "a"})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	for i, tgt := range f.targets {
		if !out.Targets[i].Deleted {
			t.Errorf("%s: Deleted = false", tgt.Name)
		}
		if _, ok := f.live(t, tgt); ok {
			t.Errorf("%s: rule still present", tgt.Name)
		}
	}
}

func TestRemoveWithoutRuleOrRoute(t *testing.T) {
	f := newFixture(t, "a", "b")
	if _, err := f.uc.Remove(context.Background(), &RemoveInput{WorkloadID: f.wl.ID, Level: "staging", InstanceID: "a"}); err != nil {
		t.Fatalf("Remove without rule: %v", err)
	}

	f.seed(t, model.RouteSet{{InstanceID: "a", Weight: 100}})
	out, err := f.uc.Remove(context.Background(), &RemoveInput{WorkloadID: f.wl.ID, Level: "staging", InstanceID: "b"})
	if err != nil {
		t.Fatalf("Remove unrouted: %v", err)
	}
	if got := out.Targets[0].Routes; !reflect.DeepEqual(got, model.RouteSet{{InstanceID: "a", Weight: 100}}) {
		t.Errorf("routes = %v", got)
	}
	if n := countVerb(f.conn.Cluster(f.targets[0].ID), "update"); n != 0 {
		t.Errorf("%d updates issued", n)
	}
}

func TestGetReportsUnroutedInstances(t *testing.T) {
	f := newFixture(t, "a", "b")

	out, err := f.uc.Get(context.Background(), &GetInput{WorkloadID: f.wl.ID, Level: "staging"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Exists {
		t.Error("Exists = true before the rule was created")
	}

	f.seed(t, model.RouteSet{{InstanceID: "a", Weight: 100}})
	out, err = f.uc.Get(context.Background(), &GetInput{TargetID: f.targets[1].ID, WorkloadID: f.wl.ID, Level: "staging"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := model.RouteSet{{InstanceID: "a", Weight: 100}, {InstanceID: "b", Weight: 0}}
	if !out.Exists || out.TargetID != f.targets[1].ID || !reflect.DeepEqual(out.Routes, want) {
		t.Errorf("Get = %+v, want routes %v", out, want)
	}
}

func TestConcurrentRemovalsSerialize(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	f.seed(t, model.RouteSet{{InstanceID: "a", Weight: 50}, {InstanceID: "b", Weight: 30}, {InstanceID: "c", Weight: 20}})

	errs := make(chan error, 2)
	for _, id := range []string{"b", "c"} {
		go func() {
			_, err := f.uc.Remove(context.Background(), &RemoveInput{WorkloadID: f.wl.ID, Level: "staging", InstanceID: id})
			errs <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}
	for _, tgt := range f.targets {
		got, _ := f.live(t, tgt)
		if !reflect.DeepEqual(got, model.RouteSet{{InstanceID: "a", Weight: 100}}) {
			t.Errorf("%s: routes = %v", tgt.Name, got)
		}
	}
}
