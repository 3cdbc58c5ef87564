package script

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/scrollseq/internal/system"
)

// Dir is where generated scripts are kept.
var Dir = filepath.Join("internal", "scripts")

// GeneratePath creates a timestamped script filename in Dir
func GeneratePath() string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(Dir, fmt.Sprintf("script_%s.yaml", timestamp))
}

// FindLatest returns the most recently modified YAML script in dir
func FindLatest(dir string) (string, error) {
	return system.FindLatest(dir, ".yaml", ".yml")
}
