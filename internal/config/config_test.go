/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"testing"
)

type fakeStore struct {
	vals map[string]string
}

func (f *fakeStore) Get(service, key string) (string, error) {
	v, ok := f.vals[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (f *fakeStore) Set(service, key, value string) error {
	f.vals[service+"/"+key] = value
	return nil
}
func (f *fakeStore) Delete(service, key string) error {
	delete(f.vals, service+"/"+key)
	return nil
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.ConfigVersion != 1 {
		t.Fatalf("config version: %d", cfg.ConfigVersion)
	}
	if cfg.Playback.StepsPerSecond != 2 {
		t.Fatalf("default steps per second: %v", cfg.Playback.StepsPerSecond)
	}
	if cfg.Sync.TimeoutMs != 10000 {
		t.Fatalf("default sync timeout: %d", cfg.Sync.TimeoutMs)
	}
	if cfg.General.TelemetryOptIn {
		t.Fatalf("telemetry should default to off")
	}
}

func TestMergeInto(t *testing.T) {
	dst := Defaults()
	src := AppConfig{
		Playback: PlaybackConfig{StepsPerSecond: 8},
		Sync:     SyncConfig{BaseURL: "https://class.example.org", TimeoutMs: 2500},
		Logging:  LoggingConfig{Level: "DEBUG", File: " /tmp/elara.log "},
	}
	mergeInto(&dst, &src)
	if dst.Playback.StepsPerSecond != 8 {
		t.Fatalf("steps per second not merged: %v", dst.Playback.StepsPerSecond)
	}
	if dst.Sync.BaseURL != "https://class.example.org" || dst.Sync.TimeoutMs != 2500 {
		t.Fatalf("sync not merged: %+v", dst.Sync)
	}
	if dst.Logging.Level != "debug" {
		t.Fatalf("logging level not normalized: %q", dst.Logging.Level)
	}
	if dst.Logging.File != "/tmp/elara.log" {
		t.Fatalf("logging file not trimmed: %q", dst.Logging.File)
	}
	// zero-value fields in src must not clobber defaults
	if dst.ConfigVersion != 1 || dst.General.Theme != "system" {
		t.Fatalf("defaults clobbered: %+v", dst)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvSyncURL, "https://env.example.org")
	t.Setenv(EnvSyncTimeoutMs, "1234")
	t.Setenv(EnvTelemetryOptIn, "yes")
	t.Setenv(EnvStepsPerSecond, "4.5")
	t.Setenv(EnvLogLevel, "WARN")

	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.Sync.BaseURL != "https://env.example.org" {
		t.Fatalf("sync url override: %q", cfg.Sync.BaseURL)
	}
	if cfg.Sync.TimeoutMs != 1234 {
		t.Fatalf("timeout override: %d", cfg.Sync.TimeoutMs)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("telemetry opt-in override not applied")
	}
	if cfg.Playback.StepsPerSecond != 4.5 {
		t.Fatalf("steps per second override: %v", cfg.Playback.StepsPerSecond)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("log level override: %q", cfg.Logging.Level)
	}

	if name, ok := EnvOverrideFor("sync.base_url"); !ok || name != EnvSyncURL {
		t.Fatalf("EnvOverrideFor sync.base_url: %q %v", name, ok)
	}
	if _, ok := EnvOverrideFor("logging.file"); ok {
		t.Fatalf("logging.file should not report an override")
	}
}

func TestApplyEnvOverridesRejectsBadValues(t *testing.T) {
	t.Setenv(EnvSyncTimeoutMs, "not-a-number")
	t.Setenv(EnvStepsPerSecond, "-3")

	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.Sync.TimeoutMs != Defaults().Sync.TimeoutMs {
		t.Fatalf("bad timeout accepted: %d", cfg.Sync.TimeoutMs)
	}
	if cfg.Playback.StepsPerSecond != Defaults().Playback.StepsPerSecond {
		t.Fatalf("negative rate accepted: %v", cfg.Playback.StepsPerSecond)
	}
}

func TestTokenStoreRoundTrip(t *testing.T) {
	old := tokenStore
	defer func() { tokenStore = old }()
	fs := &fakeStore{vals: map[string]string{}}
	tokenStore = fs

	if err := tokenStore.Set(keyringService, keyringToken, "tok-123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil || got != "tok-123" {
		t.Fatalf("get: %q %v", got, err)
	}
	if err := tokenStore.Delete(keyringService, keyringToken); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tokenStore.Get(keyringService, keyringToken); err == nil {
		t.Fatalf("expected missing token after delete")
	}
}
