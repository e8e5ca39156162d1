// =============================================================================
// Bulk PAYE - File Manager Utility
// =============================================================================
//
// File helpers shared by the CLI and the quota file store:
//   - Directory management
//   - Output file naming ({uuid}, {timestamp}, {company}, {period}, ...)
//   - Atomic writes, so a failed export never leaves a partial file
//   - Failure logs for records the calculator rejected
//   - Archival of processed upload files
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the output and archive directories.
type FileManager struct {
	// OutputDir receives templates, exports and failure logs.
	OutputDir string

	// ArchiveDir receives copies of processed upload files. Empty disables
	// archival.
	ArchiveDir string

	// UseDateSubdirs files archives under YYYY/MM/DD.
	UseDateSubdirs bool

	now func() time.Time
}

// NewFileManager creates a FileManager.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		now:        time.Now,
	}
}

// EnsureDirectories creates the output and archive directories.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// OutputPath joins name onto OutputDir.
func (fm *FileManager) OutputPath(name string) string {
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile copies a processed upload into ArchiveDir. The original is
// left in place.
//
// RETURNS:
//   - The path of the archived copy, or "" when archival is disabled.
//   - An error if the copy fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return "", nil
	}

	dir := fm.ArchiveDir
	if fm.UseDateSubdirs {
		now := fm.clock()
		dir = filepath.Join(dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(dir, filepath.Base(filePath))
	src, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file for archival: %w", err)
	}
	defer src.Close()

	if err := WriteFileAtomicFrom(archivePath, src); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}
	return archivePath, nil
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// GenerateOutputFileName expands a file name format.
//
// PARAMETERS:
//   - format: The format string. Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               plus any key in params, e.g. {company} or {period}
//   - ext:    The extension to enforce, e.g. ".csv" or ".xlsx".
//   - params: Placeholder values. Characters that are unsafe in file names
//             are replaced with '_'.
//
// EXAMPLE:
//   format: "paye_{company}_{period}_{uuid}"
//   params: {"company": "Acme Ltd", "period": "2026-10"}
//   output: "paye_Acme_Ltd_2026-10_a1b2c3d4-....csv"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = unsafeNameChars.ReplaceAllString(strings.TrimSpace(value), "_")
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic writes data to path through a temp file in the same
// directory followed by a rename. On failure path is left untouched.
func WriteFileAtomic(path string, data []byte) error {
	return WriteFileAtomicFunc(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteFileAtomicFrom is WriteFileAtomic for a reader.
func WriteFileAtomicFrom(path string, r io.Reader) error {
	return WriteFileAtomicFunc(path, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

// WriteFileAtomicFunc lets write stream into the temp file.
func WriteFileAtomicFunc(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := write(tmp); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// =============================================================================
// FAILURE LOG
// =============================================================================

// FailureLogEntry is one record the calculator could not compute.
type FailureLogEntry struct {
	RecordID int
	Employee string
	Reason   string
}

// WriteFailureLog writes a plain-text log of failed records.
//
// PARAMETERS:
//   - entries:   The failed records. Nothing is written when empty.
//   - outputDir: The directory to write the log file.
//   - source:    The upload the batch came from, for the log header.
//
// RETURNS:
//   - The path to the log file, or "" when entries is empty.
//   - An error if writing fails.
func WriteFailureLog(entries []FailureLogEntry, outputDir, source string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := time.Now()
	logPath := filepath.Join(outputDir, fmt.Sprintf("failed_records_%s.txt", now.Format("20060102_150405")))

	err := WriteFileAtomicFunc(logPath, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		fmt.Fprintf(bw, "Bulk PAYE - Failed Records\n"+
			"Generated: %s\n"+
			"Source:    %s\n"+
			"Failed:    %d\n"+
			"================================================================================\n\n",
			now.Format("2006-01-02 15:04:05"), source, len(entries))

		for _, e := range entries {
			fmt.Fprintf(bw, "Record #%d\n"+
				"  Employee: %s\n"+
				"  Reason:   %s\n\n",
				e.RecordID, e.Employee, e.Reason)
		}

		bw.WriteString("================================================================================\n" +
			"End of Log\n")
		return bw.Flush()
	})
	if err != nil {
		return "", fmt.Errorf("failed to write failure log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
