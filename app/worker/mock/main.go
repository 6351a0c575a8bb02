package main

import (
	"time"

	"argos/pkg/provider"
	"argos/pkg/util/context"
	"argos/pkg/worker"

	"github.com/caarlos0/env/v6"
)

// options of the served mock, read from the environment
type options struct {
	ID       string        `env:"MOCK_ID" envDefault:"mock"`
	Response string        `env:"MOCK_RESPONSE"`
	Delay    time.Duration `env:"MOCK_DELAY"`
	Fail     string        `env:"MOCK_FAIL"`
	Fatal    bool          `env:"MOCK_FATAL"`
}

func main() {
	var o options
	if err := env.Parse(&o); err != nil {
		context.Background().Logger().Fatal(err)
	}
	worker.Start(provider.NewMock(o.ID, provider.MockOptions{
		Response: o.Response,
		Delay:    o.Delay,
		Fail:     o.Fail,
		Fatal:    o.Fatal,
	}))
}
