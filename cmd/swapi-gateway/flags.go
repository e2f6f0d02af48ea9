package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bind binds each config key to the flag of the given name. Unknown flags
// are skipped.
func bind(v *viper.Viper, lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, flagName := range keys {
		if f := lookup(flagName); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}
