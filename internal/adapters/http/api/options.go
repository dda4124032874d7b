package api

const defaultMaxBodyBytes = 1 << 20

type serverConfig struct {
	corsOrigin   string
	maxBodyBytes int64
}

// ServerOption configures the API server.
type ServerOption func(*serverConfig)

// WithCORSOrigin sets Access-Control-Allow-Origin on the prediction routes.
func WithCORSOrigin(origin string) ServerOption {
	return func(c *serverConfig) {
		if origin != "" {
			c.corsOrigin = origin
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}
