package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v6"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const (
	// EnvConfigFile is the env variable used to locate the config file when none is set explicitly
	EnvConfigFile = "ARGOS_CONFIG"
)

var (
	config     = make(map[string]interface{})
	configFile string
	mutex      = &sync.RWMutex{}
)

// SetConfigFile sets the config file path to be read
func SetConfigFile(path string) {
	mutex.Lock()
	defer mutex.Unlock()
	configFile = path
}

// ReadInConfig reads the config file previously set, or the one designated by ARGOS_CONFIG.
// If no config file was set, does nothing
func ReadInConfig() error {
	mutex.RLock()
	path := configFile
	mutex.RUnlock()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path == "" {
		//No config file set, just return
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open file %s", path)
	}
	defer f.Close()

	return ReadConfig(f)
}

// ReadConfig read config from the given reader
func ReadConfig(in io.Reader) error {
	c := make(map[string]interface{})
	if err := json.NewDecoder(in).Decode(&c); err != nil {
		return errors.Wrap(err, "cannot decode config")
	}
	mutex.Lock()
	config = c
	mutex.Unlock()
	return nil
}

// Get returns the value for the given key, an empty key returns the whole configuration
func Get(key string) interface{} {
	mutex.RLock()
	defer mutex.RUnlock()
	if key == "" {
		return config
	}

	var obj interface{} = config
	var val interface{} = nil

	parts := strings.Split(key, ".")
	for _, p := range parts {
		if v, ok := obj.(map[string]interface{}); ok {
			obj = v[p]
			val = obj
		} else {
			return nil
		}
	}
	return val
}

// Unmarshal parses the config data for the given key and stores the result in the value pointed to by v.
// Keys are matched against json tags, durations may be given as strings ("30s").
// Env variables declared with env tags override values read from the file.
func Unmarshal(key string, v interface{}) error {
	in := Get(key)
	//Decode from config data
	if in != nil {
		if err := Decode(in, v); err != nil {
			return errors.Wrapf(err, "cannot decode config for key %s", key)
		}
	}
	// Parse env variables
	if err := env.Parse(v); err != nil {
		return errors.Wrap(err, "cannot parse env")
	}
	return nil
}

// Decode decodes the generic input structure into the value pointed to by out.
func Decode(in, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Wrap(err, "cannot create decoder")
	}
	return dec.Decode(in)
}
