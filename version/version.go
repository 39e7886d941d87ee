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

// Package version carries the build/release metadata threaded through every
// component and servlet so logs, monitors and the CLI report a consistent
// identity for the running binary.
package version

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"
)

// License identifies the open-source license under which the package using
// this version metadata is distributed.
type License uint8

const (
	License_None License = iota
	License_MIT
	License_Apache2
	License_GPL3
	License_BSD3
)

func (l License) String() string {
	switch l {
	case License_MIT:
		return "MIT"
	case License_Apache2:
		return "Apache-2.0"
	case License_GPL3:
		return "GPL-3.0"
	case License_BSD3:
		return "BSD-3-Clause"
	default:
		return "unknown"
	}
}

// Version exposes the immutable build identity of a binary: package name,
// description, build time, VCS revision, release tag and author, plus the
// root import path of the caller (derived by reflection so each servlet or
// transport module can stamp its own sub-package origin).
type Version interface {
	fmt.Stringer

	GetLicense() License
	GetPackage() string
	GetDescription() string
	GetTime() time.Time
	GetDate() string
	GetBuild() string
	GetRelease() string
	GetAuthor() string
	GetPrefix() string
	GetRootPackagePath() string
}

type vrs struct {
	lic License
	pkg string
	dsc string
	tim time.Time
	bld string
	rel string
	aut string
	pfx string
	pth string
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// NewVersion builds a Version from literal build metadata. ref is any value
// whose reflected package path anchors GetRootPackagePath; numSubPackage
// strips that many trailing path segments (e.g. 1 to go from a leaf package
// up to its module root).
func NewVersion(lic License, pkg, description, buildDate, build, release, author, prefix string, ref any, numSubPackage int) Version {
	t, err := time.Parse(timeLayout, buildDate)
	if err != nil {
		t = time.Now()
	}

	pth := reflect.TypeOf(ref).PkgPath()
	for i := 0; i < numSubPackage; i++ {
		if idx := strings.LastIndex(pth, "/"); idx > 0 {
			pth = pth[:idx]
		}
	}

	return &vrs{
		lic: lic,
		pkg: pkg,
		dsc: description,
		tim: t,
		bld: build,
		rel: release,
		aut: author,
		pfx: prefix,
		pth: pth,
	}
}

func (v *vrs) GetLicense() License         { return v.lic }
func (v *vrs) GetPackage() string          { return v.pkg }
func (v *vrs) GetDescription() string      { return v.dsc }
func (v *vrs) GetTime() time.Time          { return v.tim }
func (v *vrs) GetDate() string             { return v.tim.Format(timeLayout) }
func (v *vrs) GetBuild() string            { return v.bld }
func (v *vrs) GetRelease() string          { return v.rel }
func (v *vrs) GetAuthor() string           { return v.aut }
func (v *vrs) GetPrefix() string           { return v.pfx }
func (v *vrs) GetRootPackagePath() string  { return v.pth }

func (v *vrs) String() string {
	return fmt.Sprintf("%s %s (%s, built %s on %s, go %s)", v.pkg, v.rel, v.lic, v.bld, v.GetDate(), runtime.Version())
}
