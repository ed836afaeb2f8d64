package aks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"
)

type fakeClient struct {
	user, admin []byte
	err         error
	calls       []string
}

func (f *fakeClient) ListClusterUserCredentials(_ context.Context, rg, name string, _ *armcontainerservice.ManagedClustersClientListClusterUserCredentialsOptions) (armcontainerservice.ManagedClustersClientListClusterUserCredentialsResponse, error) {
	f.calls = append(f.calls, "user:"+rg+"/"+name)
	var res armcontainerservice.ManagedClustersClientListClusterUserCredentialsResponse
	if f.user != nil {
		res.Kubeconfigs = []*armcontainerservice.CredentialResult{{Value: f.user}}
	}
	return res, f.err
}

func (f *fakeClient) ListClusterAdminCredentials(_ context.Context, rg, name string, _ *armcontainerservice.ManagedClustersClientListClusterAdminCredentialsOptions) (armcontainerservice.ManagedClustersClientListClusterAdminCredentialsResponse, error) {
	f.calls = append(f.calls, "admin:"+rg+"/"+name)
	var res armcontainerservice.ManagedClustersClientListClusterAdminCredentialsResponse
	if f.admin != nil {
		res.Kubeconfigs = []*armcontainerservice.CredentialResult{{Value: f.admin}}
	}
	return res, f.err
}

func baseSettings() map[string]string {
	return map[string]string{
		SettingSubscriptionID:    "sub",
		SettingResourceGroupName: "rg",
		SettingClusterName:       "aks1",
		SettingAuthMethod:        "azure_cli",
	}
}

func TestNewDriverValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]string)
		wantErr string
	}{
		{"ok", func(map[string]string) {}, ""},
		{"missing cluster", func(m map[string]string) { delete(m, SettingClusterName) }, SettingClusterName},
		{"bad credential kind", func(m map[string]string) { m[SettingCredential] = "root" }, SettingCredential},
		{"bad auth method", func(m map[string]string) { m[SettingAuthMethod] = "password" }, SettingAuthMethod},
		{"client secret incomplete", func(m map[string]string) { m[SettingAuthMethod] = "client_secret" }, "client_secret"},
		{"workload identity incomplete", func(m map[string]string) { m[SettingAuthMethod] = "workload_identity" }, "workload_identity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSettings()
			tt.mutate(s)
			_, err := newDriver(s)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestKubeconfig(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{user: []byte("user-kc"), admin: []byte("admin-kc")}
	d := &driver{resourceGroup: "rg", clusterName: "aks1", newClient: func() (credentialsClient, error) { return fc, nil }}

	got, err := d.Kubeconfig(ctx, nil)
	if err != nil || string(got) != "user-kc" {
		t.Fatalf("user kubeconfig = %q, %v", got, err)
	}
	d.admin = true
	got, err = d.Kubeconfig(ctx, nil)
	if err != nil || string(got) != "admin-kc" {
		t.Fatalf("admin kubeconfig = %q, %v", got, err)
	}
	if len(fc.calls) != 2 || fc.calls[0] != "user:rg/aks1" || fc.calls[1] != "admin:rg/aks1" {
		t.Errorf("calls = %v", fc.calls)
	}

	fc.admin = nil
	if _, err := d.Kubeconfig(ctx, nil); err == nil {
		t.Error("expected error for empty credential list")
	}
	fc.err = errors.New("forbidden")
	if _, err := d.Kubeconfig(ctx, nil); err == nil || !strings.Contains(err.Error(), "forbidden") {
		t.Errorf("transport error not surfaced: %v", err)
	}
}
