package system

import "github.com/spf13/afero"

// AppFs is the filesystem suites and fixtures are read from.
// Tests replace it with afero.NewMemMapFs().
var AppFs afero.Fs = afero.NewOsFs()
