package version

// printDataDirSince is the first Agda release with --print-agda-data-dir.
var printDataDirSince = MustParse("2.6.4")

// SupportsPrintDataDir reports whether agda v answers --print-agda-data-dir.
// Older releases only know --print-agda-dir, whose answer lacks the "lib" suffix.
func SupportsPrintDataDir(v Version) bool {
	return v.Compare(printDataDirSince) >= 0
}
