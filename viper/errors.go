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

package viper

import (
	"fmt"

	liberr "github.com/nabbar/flowd/errors"
)

const (
	// ErrorParamEmpty indicates a required parameter was not provided.
	ErrorParamEmpty liberr.CodeError = iota + liberr.MinPkgViper

	// ErrorParamMissing indicates a required configuration value is missing.
	ErrorParamMissing

	// ErrorHomePathNotFound indicates the home config directory could not be located.
	ErrorHomePathNotFound

	// ErrorBasePathNotFound indicates the configured config file path does not exist.
	ErrorBasePathNotFound

	// ErrorRemoteProvider indicates the remote config provider could not be registered.
	ErrorRemoteProvider

	// ErrorRemoteProviderSecure indicates the secure remote config provider could not be registered.
	ErrorRemoteProviderSecure

	// ErrorRemoteProviderRead indicates reading the remote config provider failed.
	ErrorRemoteProviderRead

	// ErrorRemoteProviderMarshall indicates the remote config payload could not be unmarshalled.
	ErrorRemoteProviderMarshall

	// ErrorConfigRead indicates the config file could not be read.
	ErrorConfigRead

	// ErrorConfigReadDefault indicates the default config reader could not be read.
	ErrorConfigReadDefault

	// ErrorConfigIsDefault indicates no config file is set and no default config reader is registered.
	ErrorConfigIsDefault
)

func init() {
	if liberr.ExistInMapMessage(ErrorParamEmpty) {
		panic(fmt.Errorf("error code collision with package golib/viper"))
	}
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorParamEmpty:
		return "given parameters is empty"
	case ErrorParamMissing:
		return "missing required configuration value"
	case ErrorHomePathNotFound:
		return "home config path not found"
	case ErrorBasePathNotFound:
		return "base config path not found"
	case ErrorRemoteProvider:
		return "cannot register remote config provider"
	case ErrorRemoteProviderSecure:
		return "cannot register secure remote config provider"
	case ErrorRemoteProviderRead:
		return "cannot read remote config provider"
	case ErrorRemoteProviderMarshall:
		return "cannot unmarshal remote config payload"
	case ErrorConfigRead:
		return "cannot read config file"
	case ErrorConfigReadDefault:
		return "cannot read default config"
	case ErrorConfigIsDefault:
		return "no config file set and no default config registered"
	}

	return liberr.NullMessage
}
