package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentPlatform(t *testing.T) {
	p := CurrentPlatform()
	assert.NotEmpty(t, p.OS)
	assert.NotEmpty(t, p.Arch)
	assert.Equal(t, NormalizeOS(runtime.GOOS), p.OS)
	assert.Equal(t, NormalizeArch(runtime.GOARCH), p.Arch)
}

func TestNormalizeOS(t *testing.T) {
	tests := map[string]string{
		"darwin":  OSMacOS,
		"macOS":   OSMacOS,
		"linux":   OSLinux,
		"Windows": OSWindows,
		"win32":   OSWindows,
		"freebsd": "freebsd",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizeOS(in))
		})
	}
}

func TestNormalizeArch(t *testing.T) {
	tests := map[string]string{
		"amd64":   ArchX64,
		"x86_64":  ArchX64,
		"aarch64": ArchARM64,
		"arm64":   ArchARM64,
		"i686":    ArchX86,
		"riscv64": "riscv64",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizeArch(in))
		})
	}
}

func TestOverrideAndValidate(t *testing.T) {
	p := Platform{OS: OSLinux, Arch: ArchX64}.Override(Platform{OS: "darwin"})
	assert.Equal(t, Platform{OS: OSMacOS, Arch: ArchX64}, p)
	assert.NoError(t, p.Validate())

	assert.Error(t, Platform{OS: "plan9", Arch: ArchX64}.Validate())
	assert.Error(t, Platform{OS: OSLinux, Arch: "mips"}.Validate())
}

func TestExeName(t *testing.T) {
	assert.Equal(t, "agda.exe", Platform{OS: OSWindows}.ExeName("agda"))
	assert.Equal(t, "agda.exe", Platform{OS: OSWindows}.ExeName("agda.exe"))
	assert.Equal(t, "agda", Platform{OS: OSLinux}.ExeName("agda"))
}
