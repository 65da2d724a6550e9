// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pkginfo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvsec/pkginfo"
)

var _ = Describe("Pkginfo", func() {
	var saved string

	BeforeEach(func() {
		saved = pkginfo.Version
		DeferCleanup(func() { pkginfo.Version = saved })
	})

	It("marks unversioned builds as dev", func() {
		pkginfo.Version = ""
		Expect(pkginfo.UserAgent()).To(Equal("pvsec/dev"))
	})

	It("includes the release version", func() {
		pkginfo.Version = "1.2.0"
		Expect(pkginfo.UserAgent()).To(Equal("pvsec/1.2.0"))
		Expect(pkginfo.BuildVersionString()).To(HavePrefix("pvsec 1.2.0 "))
	})
})
