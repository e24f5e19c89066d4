package domain

// Phase is one of the three sequential stages of a deployment's lifecycle.
// Advancement is monotonic: once a phase is left it is never re-entered.
type Phase string

const (
	PhaseProvisioning     Phase = "cloud_init"
	PhaseContainerStartup Phase = "container_startup"
	PhaseRuntime          Phase = "runtime"
)

// Status is the daemon's current view of the deployment, derived on demand
// from the streamer's fields rather than stored.
type Status struct {
	Phase                Phase  `json:"phase"`
	ProvisioningComplete bool   `json:"cloud_init_complete"`
	ContainerStarted     bool   `json:"container_started"`
	ContainerName        string `json:"container_name"`
	DeploymentID         string `json:"deployment_id"`
	AppName              string `json:"app_name"`
	LogCount             int    `json:"log_count"`
}
