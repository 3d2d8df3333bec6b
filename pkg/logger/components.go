package logger

// Component name constants for standardized logging
const (
	// Core components
	ComponentCore = "Core"

	// Scheduling components
	ComponentRouter       = "Router"
	ComponentSupervisor   = "Supervisor"
	ComponentListenerBus  = "ListenerBus"
	ComponentStateMachine = "StateMachine"

	// Gateways to out-of-scope collaborators
	ComponentMetadataGateway = "MetadataGateway"
	ComponentExecutorGateway = "ExecutorGateway"

	// Configuration
	ComponentConfigManager = "ConfigManager"
)
