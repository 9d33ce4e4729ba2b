// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package main

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/ini.v1"
)

// config is the resolved tool configuration.
type config struct {
	Port        string
	Baud        int
	URL         string
	Username    string
	Insecure    bool
	PowerPin    string
	PowerPulses int
	APN         string
	APNUser     string
	APNPassword string
	Verbose     bool
	DryRun      bool
}

func defaultConfig() config {
	return config{
		Baud:        115200,
		PowerPulses: 3,
	}
}

// loadFile overlays the settings in the ini file onto cfg.
//
// Modem settings are in the [modem] section and GPRS settings in [gprs].
func loadFile(cfg *config, path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	m := f.Section("modem")
	cfg.Port = m.Key("port").MustString(cfg.Port)
	cfg.Baud = m.Key("baud").MustInt(cfg.Baud)
	cfg.URL = m.Key("url").MustString(cfg.URL)
	cfg.Username = m.Key("username").MustString(cfg.Username)
	cfg.Insecure = m.Key("no_ssl_verify").MustBool(cfg.Insecure)
	cfg.PowerPin = m.Key("power_pin").MustString(cfg.PowerPin)
	cfg.PowerPulses = m.Key("power_pulses").MustInt(cfg.PowerPulses)
	g := f.Section("gprs")
	cfg.APN = g.Key("apn").MustString(cfg.APN)
	cfg.APNUser = g.Key("user").MustString(cfg.APNUser)
	cfg.APNPassword = g.Key("password").MustString(cfg.APNPassword)
	return nil
}

// applyEnv overlays SIM900_* environment variables onto cfg.
func applyEnv(cfg *config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SIM900_PORT":         &cfg.Port,
		"SIM900_URL":          &cfg.URL,
		"SIM900_USERNAME":     &cfg.Username,
		"SIM900_POWER_PIN":    &cfg.PowerPin,
		"SIM900_APN":          &cfg.APN,
		"SIM900_APN_USER":     &cfg.APNUser,
		"SIM900_APN_PASSWORD": &cfg.APNPassword,
	}
	for k, p := range strs {
		if v, ok := lookup(k); ok {
			*p = v
		}
	}
	if v, ok := lookup("SIM900_BAUD"); ok {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "SIM900_BAUD")
		}
		cfg.Baud = baud
	}
	return nil
}

// applyFlags overlays any flags explicitly set on the command line onto cfg.
func applyFlags(cfg *config, cmd *cobra.Command) error {
	fs := cmd.Flags()
	strs := map[string]*string{
		"port":      &cfg.Port,
		"url":       &cfg.URL,
		"username":  &cfg.Username,
		"power-pin": &cfg.PowerPin,
		"apn":       &cfg.APN,
		"apn-user":  &cfg.APNUser,
	}
	for name, p := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*p = v
	}
	ints := map[string]*int{
		"baud":         &cfg.Baud,
		"power-pulses": &cfg.PowerPulses,
	}
	for name, p := range ints {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*p = v
	}
	bools := map[string]*bool{
		"no-ssl-verify": &cfg.Insecure,
		"verbose":       &cfg.Verbose,
		"dry-run":       &cfg.DryRun,
	}
	for name, p := range bools {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

// resolveConfig builds the config from defaults, the ini file named by the
// config flag, the environment, and the command line.
func resolveConfig(cmd *cobra.Command, lookup func(string) (string, bool)) (config, error) {
	cfg := defaultConfig()
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	if err := applyFlags(&cfg, cmd); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadConfig(cmd *cobra.Command) (config, error) {
	return resolveConfig(cmd, os.LookupEnv)
}
