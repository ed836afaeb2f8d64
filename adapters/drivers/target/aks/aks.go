// Package aks registers the "aks" target driver, which fetches cluster
// credentials from Azure Kubernetes Service.
package aks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"
	targetdrv "github.com/kompox/modelops/adapters/drivers/target"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/logging"
)

// Settings keys.
const (
	SettingSubscriptionID    = "AZURE_SUBSCRIPTION_ID"
	SettingResourceGroupName = "AZURE_RESOURCE_GROUP_NAME"
	SettingClusterName       = "AZURE_AKS_CLUSTER_NAME"
	SettingCredential        = "AZURE_AKS_CREDENTIAL" // "user" (default) or "admin"
	SettingAuthMethod        = "AZURE_AUTH_METHOD"
	SettingTenantID          = "AZURE_TENANT_ID"
	SettingClientID          = "AZURE_CLIENT_ID"
	SettingClientSecret      = "AZURE_CLIENT_SECRET"
	SettingFederatedToken    = "AZURE_FEDERATED_TOKEN_FILE"
)

// credentialsClient is the subset of armcontainerservice.ManagedClustersClient
// used by the driver.
type credentialsClient interface {
	ListClusterUserCredentials(ctx context.Context, resourceGroupName, resourceName string, options *armcontainerservice.ManagedClustersClientListClusterUserCredentialsOptions) (armcontainerservice.ManagedClustersClientListClusterUserCredentialsResponse, error)
	ListClusterAdminCredentials(ctx context.Context, resourceGroupName, resourceName string, options *armcontainerservice.ManagedClustersClientListClusterAdminCredentialsOptions) (armcontainerservice.ManagedClustersClientListClusterAdminCredentialsResponse, error)
}

// driver implements the AKS target driver.
type driver struct {
	subscriptionID string
	resourceGroup  string
	clusterName    string
	admin          bool
	newClient      func() (credentialsClient, error)
}

func (d *driver) ID() string { return "aks" }

func init() {
	targetdrv.Register("aks", newDriver)
}

func newDriver(settings map[string]string) (targetdrv.Driver, error) {
	get := func(k string) string { return strings.TrimSpace(settings[k]) }

	d := &driver{
		subscriptionID: get(SettingSubscriptionID),
		resourceGroup:  get(SettingResourceGroupName),
		clusterName:    get(SettingClusterName),
	}
	var missing []string
	for k, v := range map[string]string{
		SettingSubscriptionID:    d.subscriptionID,
		SettingResourceGroupName: d.resourceGroup,
		SettingClusterName:       d.clusterName,
	} {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required AKS settings: %s", strings.Join(missing, ", "))
	}
	switch get(SettingCredential) {
	case "", "user":
	case "admin":
		d.admin = true
	default:
		return nil, fmt.Errorf("unsupported %s: %s", SettingCredential, get(SettingCredential))
	}

	cred, err := newCredential(get)
	if err != nil {
		return nil, err
	}
	d.newClient = func() (credentialsClient, error) {
		return armcontainerservice.NewManagedClustersClient(d.subscriptionID, cred, nil)
	}
	return d, nil
}

// newCredential selects an azidentity credential by AZURE_AUTH_METHOD.
func newCredential(get func(string) string) (azcore.TokenCredential, error) {
	var (
		cred azcore.TokenCredential
		err  error
	)
	switch method := get(SettingAuthMethod); method {
	case "client_secret":
		tenantID, clientID, secret := get(SettingTenantID), get(SettingClientID), get(SettingClientSecret)
		if tenantID == "" || clientID == "" || secret == "" {
			return nil, fmt.Errorf("client_secret auth requires %s, %s, %s", SettingTenantID, SettingClientID, SettingClientSecret)
		}
		cred, err = azidentity.NewClientSecretCredential(tenantID, clientID, secret, nil)
	case "managed_identity":
		opts := &azidentity.ManagedIdentityCredentialOptions{}
		if clientID := get(SettingClientID); clientID != "" {
			opts.ID = azidentity.ClientID(clientID)
		}
		cred, err = azidentity.NewManagedIdentityCredential(opts)
	case "workload_identity":
		tenantID, clientID, tokenFile := get(SettingTenantID), get(SettingClientID), get(SettingFederatedToken)
		if tenantID == "" || clientID == "" || tokenFile == "" {
			return nil, fmt.Errorf("workload_identity auth requires %s, %s, %s", SettingTenantID, SettingClientID, SettingFederatedToken)
		}
		cred, err = azidentity.NewWorkloadIdentityCredential(&azidentity.WorkloadIdentityCredentialOptions{
			TenantID:      tenantID,
			ClientID:      clientID,
			TokenFilePath: tokenFile,
		})
	case "", "default":
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	case "azure_cli":
		cred, err = azidentity.NewAzureCLICredential(nil)
	case "azure_developer_cli":
		cred, err = azidentity.NewAzureDeveloperCLICredential(nil)
	default:
		return nil, fmt.Errorf("unsupported %s: %s", SettingAuthMethod, method)
	}
	if err != nil {
		return nil, fmt.Errorf("create Azure credential: %w", err)
	}
	return cred, nil
}

// Kubeconfig lists the cluster user (or admin) credentials and returns the
// first kubeconfig.
func (d *driver) Kubeconfig(ctx context.Context, target *model.ClusterTarget) ([]byte, error) {
	logger := logging.FromContext(ctx).With("subscription", d.subscriptionID, "resourceGroup", d.resourceGroup, "cluster", d.clusterName)
	client, err := d.newClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create AKS client: %w", err)
	}
	var kubeconfigs []*armcontainerservice.CredentialResult
	if d.admin {
		res, err := client.ListClusterAdminCredentials(ctx, d.resourceGroup, d.clusterName, nil)
		if err != nil {
			logger.Info(ctx, "AKS:ListClusterAdminCredentials/efail", "err", err)
			return nil, fmt.Errorf("failed to get cluster admin credentials: %w", err)
		}
		kubeconfigs = res.Kubeconfigs
	} else {
		res, err := client.ListClusterUserCredentials(ctx, d.resourceGroup, d.clusterName, nil)
		if err != nil {
			logger.Info(ctx, "AKS:ListClusterUserCredentials/efail", "err", err)
			return nil, fmt.Errorf("failed to get cluster user credentials: %w", err)
		}
		kubeconfigs = res.Kubeconfigs
	}
	if len(kubeconfigs) == 0 || kubeconfigs[0] == nil || len(kubeconfigs[0].Value) == 0 {
		return nil, fmt.Errorf("no kubeconfig found for cluster %s", d.clusterName)
	}
	logger.Debug(ctx, "AKS:Kubeconfig/eok", "admin", d.admin)
	return kubeconfigs[0].Value, nil
}
