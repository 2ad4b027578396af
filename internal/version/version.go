// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package version // import "lettre.app/internal/version"

import "strings"

const (
	devVersion = "Development Version"
	repoURL    = "https://github.com/lettre-app/lettre"
)

// Variables populated at build time when using LD_FLAGS.
var (
	Commit    = "Unknown (built outside VCS)"
	BuildDate = "Unknown (built outside VCS)"
	Version   = devVersion
)

type Info struct{}

func New() Info { return Info{} }

func (Info) Commit() string { return Commit }

func (self Info) CommitURL() string {
	if strings.HasPrefix(self.Commit(), "Unknown ") {
		return ""
	}
	return repoURL + "/commit/" + self.Commit()
}

func (Info) BuildDate() string { return BuildDate }

func (Info) Version() string { return Version }

func (self Info) VersionURL() string {
	if self.Version() == devVersion {
		return ""
	}
	return repoURL + "/releases/tag/v" + self.Version()
}
