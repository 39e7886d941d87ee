/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package mem_test

import (
	. "github.com/nabbar/flowd/transport/mem"

	libpip "github.com/nabbar/flowd/pipe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Module lifecycle", func() {
	It("accepts a nil argv and never fails cleanup", func() {
		mod := New("test.mem.lifecycle")
		Expect(mod.Init(nil)).To(Succeed())
		Expect(mod.Cleanup()).To(Succeed())
	})

	It("reports its path and a zero flag word", func() {
		mod := New("test.mem.path")
		Expect(mod.Path()).To(Equal("test.mem.path"))
		Expect(mod.ModuleFlags()).To(Equal(libpip.Flags(0)))
	})
})

var _ = Describe("Module.Allocate", func() {
	It("hands back one shared payload for both ends of the pair", func() {
		mod := New("test.mem.allocate")
		in, out, err := mod.Allocate("", libpip.Params{})
		Expect(err).NotTo(HaveOccurred())
		Expect(in).To(Equal(out))
	})

	It("round-trips a write through to a read on the shared buffer", func() {
		mod := New("test.mem.roundtrip")
		in, out, err := mod.Allocate("", libpip.Params{})
		Expect(err).NotTo(HaveOccurred())

		n, err := mod.Write(out, []byte("hello"))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(5))

		Expect(mod.HasUnreadData(in)).To(BeTrue())

		buf := make([]byte, 16)
		n, err = mod.Read(in, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf[:n]).To(Equal([]byte("hello")))

		Expect(mod.HasUnreadData(in)).To(BeFalse())
	})

	It("returns a would-block zero read with no error on an empty buffer", func() {
		mod := New("test.mem.wouldblock")
		in, _, err := mod.Allocate("", libpip.Params{})
		Expect(err).NotTo(HaveOccurred())

		n, err := mod.Read(in, make([]byte, 4))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(0))
	})
})

var _ = Describe("Module.Fork", func() {
	It("delivers a snapshot of the remaining bytes independently of the source", func() {
		mod := New("test.mem.fork")
		in, out, err := mod.Allocate("", libpip.Params{})
		Expect(err).NotTo(HaveOccurred())

		_, err = mod.Write(out, []byte("abc"))
		Expect(err).NotTo(HaveOccurred())

		shadow, err := mod.Fork(in)
		Expect(err).NotTo(HaveOccurred())

		_, err = mod.Write(out, []byte("def"))
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, 16)
		n, err := mod.Read(shadow, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf[:n]).To(Equal([]byte("abc")))
		Expect(mod.HasUnreadData(shadow)).To(BeFalse())

		n, err = mod.Read(in, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf[:n]).To(Equal([]byte("abcdef")))
	})
})

var _ = Describe("Module.EOM", func() {
	It("pushes unconsumed bytes back to the front of the buffer", func() {
		mod := New("test.mem.eom")
		in, out, err := mod.Allocate("", libpip.Params{})
		Expect(err).NotTo(HaveOccurred())

		_, err = mod.Write(out, []byte("rest"))
		Expect(err).NotTo(HaveOccurred())

		Expect(mod.EOM(in, []byte("head"))).To(Succeed())

		buf := make([]byte, 16)
		n, err := mod.Read(in, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf[:n]).To(Equal([]byte("headrest")))
	})

	It("is a no-op on an empty unconsumed slice", func() {
		mod := New("test.mem.eom.empty")
		in, _, err := mod.Allocate("", libpip.Params{})
		Expect(err).NotTo(HaveOccurred())
		Expect(mod.EOM(in, nil)).To(Succeed())
		Expect(mod.HasUnreadData(in)).To(BeFalse())
	})
})

var _ = Describe("Module.Deallocate", func() {
	It("only releases the shared buffer on purge", func() {
		mod := New("test.mem.dealloc")
		in, out, err := mod.Allocate("", libpip.Params{})
		Expect(err).NotTo(HaveOccurred())

		_, err = mod.Write(out, []byte("data"))
		Expect(err).NotTo(HaveOccurred())

		Expect(mod.Deallocate(out, false, false)).To(Succeed())
		Expect(mod.HasUnreadData(in)).To(BeTrue())

		Expect(mod.Deallocate(in, true, false)).To(Succeed())
		Expect(mod.HasUnreadData(in)).To(BeFalse())
	})
})

var _ = Describe("Module capability surface", func() {
	It("implements exactly the capabilities mem needs, not Accept or Cntl", func() {
		var mod libpip.Module = New("test.mem.capabilities")

		_, ok := mod.(libpip.ModuleAllocator)
		Expect(ok).To(BeTrue())
		_, ok = mod.(libpip.ModuleReader)
		Expect(ok).To(BeTrue())
		_, ok = mod.(libpip.ModuleWriter)
		Expect(ok).To(BeTrue())
		_, ok = mod.(libpip.ModuleUnreadProber)
		Expect(ok).To(BeTrue())
		_, ok = mod.(libpip.ModuleForker)
		Expect(ok).To(BeTrue())
		_, ok = mod.(libpip.ModuleEOMer)
		Expect(ok).To(BeTrue())
		_, ok = mod.(libpip.ModulePathFlagger)
		Expect(ok).To(BeTrue())

		_, isAcceptor := mod.(libpip.ModuleAcceptor)
		Expect(isAcceptor).To(BeFalse())

		_, isCntl := mod.(libpip.ModuleCntller)
		Expect(isCntl).To(BeFalse())
	})
})
