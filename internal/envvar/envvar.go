package envvar

const (
	// ParavoxEnv is the environment variable used to determine the environment
	ParavoxEnv = "PARAVOX_ENV"

	// ParavoxServerHTTPPort is the environment variable used to determine the HTTP port
	ParavoxServerHTTPPort = "PARAVOX_SERVER_HTTP_PORT"

	// ParavoxServerGRPCPort is the environment variable used to determine the gRPC port
	ParavoxServerGRPCPort = "PARAVOX_SERVER_GRPC_PORT"

	// ParavoxModelsPath overrides storage.models_dir
	ParavoxModelsPath = "PARAVOX_MODELS_PATH"

	// ParavoxLogLevel sets the minimum log level (debug, info, warn, error)
	ParavoxLogLevel = "PARAVOX_LOG_LEVEL"
)
