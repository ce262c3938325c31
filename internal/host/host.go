// Package host derives a stable fingerprint for the machine jobman is
// running on. All store queries are scoped by this id so a shared storage
// path never surfaces another machine's jobs.
package host

import (
	"crypto/sha256"
	"encoding/hex"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

const idLen = 12

var (
	once     sync.Once
	cachedID string
)

// ID returns a 12-character lowercase hex id for this machine: the first 12
// hex digits of SHA-256 over the uname facts joined as
// "node;system;release;version;machine;processor". It is stable across
// invocations and intentionally neither a secret nor a UUID.
func ID() string {
	once.Do(func() {
		cachedID = fingerprint(unameFacts())
	})
	return cachedID
}

func fingerprint(facts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(facts, ";")))
	return hex.EncodeToString(sum[:])[:idLen]
}

func unameFacts() []string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		// Degraded but still deterministic for this build.
		return []string{"", runtime.GOOS, "", "", runtime.GOARCH, runtime.GOARCH}
	}
	return []string{
		cstr(uts.Nodename[:]),
		cstr(uts.Sysname[:]),
		cstr(uts.Release[:]),
		cstr(uts.Version[:]),
		cstr(uts.Machine[:]),
		// uname has no processor field; GOARCH plays the same role.
		runtime.GOARCH,
	}
}

// cstr converts a NUL-terminated byte array from uname to a string.
func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
