package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	// Assumes rootCmd is defined in root.go within the same package
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().BoolP("empty-dirs", "e", false, "Also remove empty directories left by failed exports")
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove temporary (.tmp) files from the save directory",
	Long: `Recursively scans the configured SavePath and removes any files ending with
the .tmp extension, which interrupted photo exports leave behind. Optionally
removes empty directories as well.`,
	Run: runClean,
}

func runClean(cmd *cobra.Command, args []string) {
	// Access the globally loaded config from root.go's PersistentPreRunE
	cfg := globalConfig
	savePath := cfg.SavePath

	cleanEmptyDirs, _ := cmd.Flags().GetBool("empty-dirs")

	// --- Path Validation ---
	if savePath == "" {
		if cfg.DatabasePath != "" {
			savePath = filepath.Dir(cfg.DatabasePath)
			log.Warnf("SavePath is empty, inferring base directory from DatabasePath: %s", savePath)
		} else {
			log.Error("SavePath is not configured (and cannot be inferred from DatabasePath). Cannot determine where to clean.")
			os.Exit(1)
		}
	}
	info, err := os.Stat(savePath)
	if os.IsNotExist(err) {
		log.Errorf("SavePath directory does not exist: %s", savePath)
		os.Exit(1)
	}
	if err != nil {
		log.Errorf("Error accessing SavePath %q: %v", savePath, err)
		os.Exit(1)
	}
	if !info.IsDir() {
		log.Errorf("SavePath is not a directory: %s", savePath)
		os.Exit(1)
	}
	// --- End Path Validation ---

	logLine := fmt.Sprintf("Scanning for .tmp files in %s", savePath)
	if cleanEmptyDirs {
		logLine += " (and empty directories)"
	}
	log.Info(logLine + "...")

	var tmpRemoved, dirsRemoved int64
	var filesFailed int64
	var subDirs []string

	walkErr := filepath.Walk(savePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warnf("Error accessing path %q during scan: %v", path, err)
			return nil
		}
		if info.IsDir() {
			if path != savePath {
				subDirs = append(subDirs, path)
			}
			return nil
		}

		if strings.HasSuffix(strings.ToLower(info.Name()), ".tmp") {
			log.Debugf("Found .tmp file: %s", path)
			if err := os.Remove(path); err != nil {
				if os.IsNotExist(err) {
					log.Warnf("Attempted to remove .tmp file %q, but it was already gone.", path)
				} else {
					log.Errorf("Failed to remove .tmp file %q: %v", path, err)
					filesFailed++
				}
			} else {
				log.Infof("Removed .tmp file: %s", path)
				tmpRemoved++
			}
		}
		return nil // Continue walking
	})

	if walkErr != nil {
		log.Errorf("Error during directory walk of %q: %v", savePath, walkErr)
	}

	// Deepest directories first so nested empties collapse in one pass
	if cleanEmptyDirs {
		sort.Slice(subDirs, func(i, j int) bool {
			return strings.Count(subDirs[i], string(os.PathSeparator)) > strings.Count(subDirs[j], string(os.PathSeparator))
		})
		for _, dir := range subDirs {
			// os.Remove refuses to delete non-empty directories
			if err := os.Remove(dir); err == nil {
				log.Infof("Removed empty directory: %s", dir)
				dirsRemoved++
			}
		}
	}

	// Build summary string
	var summaryParts []string
	if tmpRemoved > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d .tmp file(s)", tmpRemoved))
	}
	if dirsRemoved > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d empty dir(s)", dirsRemoved))
	}

	summary := "Clean complete. Removed: "
	if len(summaryParts) > 0 {
		summary += strings.Join(summaryParts, ", ")
	} else {
		summary += "0 files"
	}

	if filesFailed > 0 {
		summary += fmt.Sprintf(". Failed to remove %d file(s).", filesFailed)
	}
	log.Info(summary)

	if filesFailed > 0 || walkErr != nil {
		os.Exit(1)
	}
}
