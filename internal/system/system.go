package system

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// openFilesLimit covers one descriptor per in-flight frame load plus headroom.
const openFilesLimit = 2048

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not read the open files limit: %v", err)
		return
	}

	if rLimit.Cur >= openFilesLimit {
		return
	}
	rLimit.Cur = openFilesLimit
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not raise the open files limit: %v", err)
	} else {
		fmt.Printf("[*] Open files limit raised to %d\n", rLimit.Cur)
	}
}

// FindLatest returns the most recently modified file in dir with one of the
// given extensions.
func FindLatest(dir string, extensions ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), extensions) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(extensions, "/"), dir)
	}

	return latestFile, nil
}

func hasExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// FindLatestConfig finds the newest YAML configuration in dir.
func FindLatestConfig(dir string) (string, error) {
	return FindLatest(dir, ".yaml", ".yml")
}
