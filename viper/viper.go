/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package viper wraps github.com/spf13/viper with the context/logger
// conventions used across the config component tree: a single typed getter
// surface for components, remote-provider registration, a default-config
// fallback reader and fsnotify-backed file watching so components can
// Reload() on edit.
package viper

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	spfvpr "github.com/spf13/viper"

	liblog "github.com/nabbar/flowd/logger"
)

// FuncViper hands out the shared Viper instance, so a consumer can pull a
// fresh view of the configuration at call time instead of caching one.
type FuncViper func() Viper

// FuncChange is invoked every time the watched configuration file changes,
// after the file has been successfully reloaded.
type FuncChange func()

// Viper exposes the underlying *spfvpr.Viper plus the remote-provider,
// default-config and file-watch wiring used by the config component tree.
type Viper interface {
	// Viper returns the wrapped spf13/viper instance.
	Viper() *spfvpr.Viper

	// SetConfigFile sets the path loaded by Load and watched by WatchChange.
	SetConfigFile(path string)

	// SetHomeBaseName registers the base name (without extension) viper
	// searches for alongside the config file, in the process home dir.
	SetHomeBaseName(name string)

	// SetEnvVarsPrefix registers the prefix used for automatic environment
	// variable binding (e.g. "MYAPP" binds MYAPP_SECTION_KEY to section.key).
	SetEnvVarsPrefix(prefix string)

	// SetRemoteProvider registers the remote config backend (etcd, consul...).
	SetRemoteProvider(provider string)

	// SetRemoteEndpoint registers the remote config backend endpoint.
	SetRemoteEndpoint(endpoint string)

	// SetRemotePath registers the key path read from the remote backend.
	SetRemotePath(path string)

	// SetRemoteSecureKey enables encrypted remote config reads with the
	// given decryption key.
	SetRemoteSecureKey(key string)

	// SetRemoteModel registers the struct used to unmarshal encrypted
	// remote config payloads.
	SetRemoteModel(model interface{})

	// SetRemoteReloadFunc registers the callback fired after a successful
	// remote config watch-triggered reload.
	SetRemoteReloadFunc(fct func())

	// SetDefaultConfig registers a fallback config reader used by Load when
	// no config file path has been set.
	SetDefaultConfig(fct func() io.Reader)

	// Load reads the configured file (or, absent one, the default config
	// reader) into the viper instance.
	Load() error

	// UnmarshalKey unmarshals the value at key into val.
	UnmarshalKey(key string, val interface{}) error

	// WatchChange arms fsnotify on the config file and calls fct after each
	// successful reload triggered by a write event.
	WatchChange(fct FuncChange)

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
	GetTime(key string) time.Time
	GetIntSlice(key string) []int
	GetStringSlice(key string) []string
	GetStringMap(key string) map[string]interface{}
	GetStringMapString(key string) map[string]string
	GetStringMapStringSlice(key string) map[string][]string
}

type vpr struct {
	log liblog.FuncLog
	v   *spfvpr.Viper

	pth string
	hom string
	pfx string

	rmtProvider string
	rmtEndpoint string
	rmtPath     string
	rmtSecure   string
	rmtModel    interface{}
	rmtReload   func()

	dft func() io.Reader
}

// New creates a Viper wrapper bound to ctx. If log is nil a background
// logger is created so watch-change errors are never silently dropped.
func New(ctx context.Context, log liblog.FuncLog) Viper {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = func() liblog.Logger { return liblog.New(ctx) }
	}

	return &vpr{
		log: log,
		v:   spfvpr.New(),
	}
}

func (o *vpr) Viper() *spfvpr.Viper {
	return o.v
}

func (o *vpr) SetConfigFile(path string) {
	o.pth = path
	o.v.SetConfigFile(path)
}

func (o *vpr) SetHomeBaseName(name string) {
	o.hom = name
	o.v.SetConfigName(name)
}

func (o *vpr) SetEnvVarsPrefix(prefix string) {
	o.pfx = strings.ToUpper(prefix)
	o.v.SetEnvPrefix(o.pfx)
	o.v.AutomaticEnv()
}

func (o *vpr) SetRemoteProvider(provider string) {
	o.rmtProvider = provider
}

func (o *vpr) SetRemoteEndpoint(endpoint string) {
	o.rmtEndpoint = endpoint
}

func (o *vpr) SetRemotePath(path string) {
	o.rmtPath = path
}

func (o *vpr) SetRemoteSecureKey(key string) {
	o.rmtSecure = key
}

func (o *vpr) SetRemoteModel(model interface{}) {
	o.rmtModel = model
}

func (o *vpr) SetRemoteReloadFunc(fct func()) {
	o.rmtReload = fct
}

func (o *vpr) SetDefaultConfig(fct func() io.Reader) {
	o.dft = fct
}

func (o *vpr) loadRemote() error {
	if o.rmtProvider == "" {
		return nil
	}

	var err error
	if o.rmtSecure != "" {
		err = o.v.AddSecureRemoteProvider(o.rmtProvider, o.rmtEndpoint, o.rmtPath, o.rmtSecure)
		if err != nil {
			return ErrorRemoteProviderSecure.Error(err)
		}
	} else {
		err = o.v.AddRemoteProvider(o.rmtProvider, o.rmtEndpoint, o.rmtPath)
		if err != nil {
			return ErrorRemoteProvider.Error(err)
		}
	}

	if err = o.v.ReadRemoteConfig(); err != nil {
		return ErrorRemoteProviderRead.Error(err)
	}

	if o.rmtModel != nil {
		if err = o.v.Unmarshal(o.rmtModel); err != nil {
			return ErrorRemoteProviderMarshall.Error(err)
		}
	}

	return nil
}

func (o *vpr) Load() error {
	if err := o.loadRemote(); err != nil {
		return err
	}

	if o.pth != "" {
		if err := o.v.ReadInConfig(); err != nil {
			return ErrorConfigRead.Error(err)
		}
		return nil
	}

	if o.dft != nil {
		r := o.dft()
		if r == nil {
			return ErrorConfigReadDefault.Error(nil)
		}
		if err := o.v.ReadConfig(r); err != nil {
			return ErrorConfigReadDefault.Error(err)
		}
		return nil
	}

	if o.rmtProvider != "" {
		return nil
	}

	return ErrorConfigIsDefault.Error(nil)
}

func (o *vpr) UnmarshalKey(key string, val interface{}) error {
	return o.v.UnmarshalKey(key, val)
}

func (o *vpr) WatchChange(fct FuncChange) {
	if o.pth == "" || fct == nil {
		return
	}

	o.v.OnConfigChange(func(_ fsnotify.Event) {
		if err := o.v.ReadInConfig(); err != nil {
			o.log().Error("reload config file", err)
			return
		}
		if o.rmtReload != nil {
			o.rmtReload()
		}
		fct()
	})
	o.v.WatchConfig()
}

func (o *vpr) GetBool(key string) bool                             { return o.v.GetBool(key) }
func (o *vpr) GetString(key string) string                         { return o.v.GetString(key) }
func (o *vpr) GetInt(key string) int                               { return o.v.GetInt(key) }
func (o *vpr) GetInt32(key string) int32                           { return o.v.GetInt32(key) }
func (o *vpr) GetInt64(key string) int64                           { return o.v.GetInt64(key) }
func (o *vpr) GetUint(key string) uint                             { return o.v.GetUint(key) }
func (o *vpr) GetUint16(key string) uint16                         { return o.v.GetUint16(key) }
func (o *vpr) GetUint32(key string) uint32                         { return o.v.GetUint32(key) }
func (o *vpr) GetUint64(key string) uint64                         { return o.v.GetUint64(key) }
func (o *vpr) GetFloat64(key string) float64                       { return o.v.GetFloat64(key) }
func (o *vpr) GetDuration(key string) time.Duration                { return o.v.GetDuration(key) }
func (o *vpr) GetTime(key string) time.Time                        { return o.v.GetTime(key) }
func (o *vpr) GetIntSlice(key string) []int                        { return o.v.GetIntSlice(key) }
func (o *vpr) GetStringSlice(key string) []string                  { return o.v.GetStringSlice(key) }
func (o *vpr) GetStringMap(key string) map[string]interface{}      { return o.v.GetStringMap(key) }
func (o *vpr) GetStringMapString(key string) map[string]string     { return o.v.GetStringMapString(key) }
func (o *vpr) GetStringMapStringSlice(key string) map[string][]string {
	return o.v.GetStringMapStringSlice(key)
}
