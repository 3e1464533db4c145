package platform

// Operating systems, as named in prebuilt index keys.
const (
	// OSLinux represents Linux.
	OSLinux = "linux"
	// OSMacOS represents macOS.
	OSMacOS = "macos"
	// OSWindows represents Windows.
	OSWindows = "windows"
)

// Architectures, as named in prebuilt index keys.
const (
	// ArchX64 represents x86_64.
	ArchX64 = "x64"
	// ArchARM64 represents AArch64.
	ArchARM64 = "arm64"
	// ArchX86 represents 32-bit x86.
	ArchX86 = "x86"
)

// ValidOS returns the operating systems agdaup installs for.
func ValidOS() []string {
	return []string{OSLinux, OSMacOS, OSWindows}
}

// ValidArch returns the architectures agdaup installs for.
func ValidArch() []string {
	return []string{ArchX64, ArchARM64, ArchX86}
}
