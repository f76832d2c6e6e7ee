package forecast

import (
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
)

const defaultTimeout = 30 * time.Second

// Configured sets up the forecast client based on flags.
// It uses lflag to register command-line flags for configuration.
func Configured() *Client {
	c := &Client{}

	baseURL := lflag.String("forecast-url", "http://127.0.0.1:5000", "Base URL of the forecasting backend")
	timeout := lflag.Duration("forecast-timeout", defaultTimeout, "Timeout for a single forecast request (0 disables)")

	lflag.Do(func() {
		*c = *NewClient(*baseURL, nil, *timeout)
		if err := c.Validate(); err != nil {
			panic(fmt.Sprintf("forecast validation failed: %v", err))
		}
	})

	return c
}
