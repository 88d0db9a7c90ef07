package backend

import "context"

// ModelLocator is an optional interface for backends that can locate
// the actual model file to load or execute.
type ModelLocator interface {
	// ResolveModelPath resolves the real model path inside the base downloaded directory.
	ResolveModelPath(basePath string) (string, error)
}

// Warmer is an optional interface for backends that need to load a model
// before the first Infer call, e.g. by starting an inference server.
type Warmer interface {
	// Warm prepares modelPath for inference. parameters are the model's
	// configured parameters.
	Warm(ctx context.Context, modelPath string, parameters map[string]any) error
}
