package primitives

import "path/filepath"

// Filepath is an absolute or data-dir-relative path to a database file.
type Filepath string

// TableFile returns the data file path for a table inside dir,
// following the `<table>.tbl` naming convention.
func TableFile(dir, table string) Filepath {
	return Filepath(filepath.Join(dir, table+".tbl"))
}

// IndexFile returns the primary-key index file path for a table inside
// dir, following the `<table>.idx` naming convention.
func IndexFile(dir, table string) Filepath {
	return Filepath(filepath.Join(dir, table+".idx"))
}

// WALFile returns the shared write-ahead log path inside dir.
func WALFile(dir string) Filepath {
	return Filepath(filepath.Join(dir, "gsql.wal"))
}
