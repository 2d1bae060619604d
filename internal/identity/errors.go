package identity

import "github.com/io7m-com/sunburst/internal/sunerr"

func duplicatePathError(path string) error {
	return sunerr.New(sunerr.KindInvalidArgument, "duplicate entry path within package").WithExtra(path)
}

func duplicateImportError(name string) error {
	return sunerr.New(sunerr.KindInvalidArgument, "duplicate import package name within peer").WithExtra(name)
}
