// =============================================================================
// OFX to CSV Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the converter, including:
//   - Input discovery (*.ofx files in a directory)
//   - Output naming (statement.ofx -> statement.csv)
//   - Atomic writes (no half-written output files)
//   - Archival of processed inputs
//   - Error log and summary generation
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to the archive directory after a successful
//     conversion, when an archive directory is configured
//   - Failed files remain in their original location
//   - Error logs and summaries are written to the reports directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputDir is the directory scanned for input files.
	InputDir string

	// ArchiveDir receives input files after successful conversion.
	// Empty disables archival.
	ArchiveDir string

	// ReportsDir receives error logs and summaries.
	// Empty disables reports.
	ReportsDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/statement.ofx
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, archiveDir, reportsDir string) *FileManager {
	return &FileManager{
		InputDir:   inputDir,
		ArchiveDir: archiveDir,
		ReportsDir: reportsDir,
	}
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for files matching the pattern.
//
// PARAMETERS:
//   - pattern: A glob pattern to match files (e.g., "*.ofx").
//              If empty, defaults to "*.ofx".
//
// RETURNS:
//   - A sorted slice of file paths.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.ofx"
	}

	if _, err := os.Stat(fm.InputDir); err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	// filepath.Glob returns matches in lexical order.
	files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	// Filter out directories.
	var result []string
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			result = append(result, file)
		}
	}

	return result, nil
}

// DiscoverInputFilesRecursive scans the input directory recursively.
// The archive directory is skipped when it lies inside the input directory.
//
// PARAMETERS:
//   - extension: The file extension to match (e.g., ".ofx"), case-insensitive.
func (fm *FileManager) DiscoverInputFilesRecursive(extension string) ([]string, error) {
	var files []string

	archiveDir := ""
	if fm.ArchiveDir != "" {
		if abs, err := filepath.Abs(fm.ArchiveDir); err == nil {
			archiveDir = abs
		}
	}

	err := filepath.Walk(fm.InputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if archiveDir != "" {
				if abs, err := filepath.Abs(path); err == nil && abs == archiveDir {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if extension == "" || strings.HasSuffix(strings.ToLower(path), strings.ToLower(extension)) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk input directory: %w", err)
	}

	return files, nil
}

// =============================================================================
// OUTPUT NAMING
// =============================================================================

// InputExtension is the suffix replaced when deriving output names.
// The match is case-sensitive.
const InputExtension = ".ofx"

// OutputPath derives the output path for an input file.
//
// A trailing ".ofx" is replaced by ext; any other name gets ext appended.
// When outputDir is set the derived base name is placed there, otherwise it
// sits next to the input.
//
// EXAMPLE:
//   OutputPath("in/june.ofx", "", ".csv")     -> "in/june.csv"
//   OutputPath("in/june.OFX", "", ".csv")     -> "in/june.OFX.csv"
//   OutputPath("in/june.ofx", "out", ".xlsx") -> "out/june.xlsx"
func OutputPath(input, outputDir, ext string) string {
	if ext == "" {
		ext = ".csv"
	}

	output := strings.TrimSuffix(input, InputExtension) + ext

	if outputDir != "" {
		return filepath.Join(outputDir, filepath.Base(output))
	}
	return output
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic writes a file through a uniquely named temporary file in
// the same directory and renames it into place. On any failure the
// temporary file is removed and path is left as it was.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.New().String()))

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = write(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file, or filePath unchanged when archival is
//     disabled.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(filePath)

	// Ensure the archive directory exists.
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	// Move the file.
	if err := os.Rename(filePath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := time.Now()
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
	LineNumber   int
	FieldName    string
	FieldValue   string
}

// WriteErrorLog writes error entries to a log file in the reports directory.
//
// RETURNS:
//   - The path to the error log file, or "" when there is nothing to write
//     or reports are disabled.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 || fm.ReportsDir == "" {
		return "", nil
	}

	logPath := filepath.Join(fm.ReportsDir, fmt.Sprintf("error_log_%s.txt", time.Now().Format("20060102_150405")))

	err := WriteFileAtomic(logPath, func(w io.Writer) error {
		writer := bufio.NewWriter(w)

		fmt.Fprintf(writer, "OFX to CSV Converter - Error Log\n"+
			"Generated: %s\n"+
			"Total Errors: %d\n"+
			"================================================================================\n\n",
			time.Now().Format("2006-01-02 15:04:05"),
			len(entries))

		for i, entry := range entries {
			fmt.Fprintf(writer, "Error #%d\n"+
				"  Timestamp:  %s\n"+
				"  File:       %s\n"+
				"  Error Type: %s\n"+
				"  Message:    %s\n",
				i+1,
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.FileName,
				entry.ErrorType,
				entry.ErrorMessage)

			if entry.LineNumber > 0 {
				fmt.Fprintf(writer, "  Line:       %d\n", entry.LineNumber)
			}
			if entry.FieldName != "" {
				fmt.Fprintf(writer, "  Field:      %s\n", entry.FieldName)
			}
			if entry.FieldValue != "" {
				fmt.Fprintf(writer, "  Value:      %s\n", entry.FieldValue)
			}
			writer.WriteString("\n")
		}

		writer.WriteString("================================================================================\n" +
			"End of Error Log\n")

		return writer.Flush()
	})
	if err != nil {
		return "", fmt.Errorf("failed to write error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID             string
	StartTime         time.Time
	EndTime           time.Time
	TotalFiles        int
	SuccessfulFiles   int
	FailedFiles       int
	TotalTransactions int
	TotalWarnings     int
	ProcessedFiles    []ProcessedFileInfo
	FailedFilesList   []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully converted file.
type ProcessedFileInfo struct {
	InputFile    string
	OutputFile   string
	ArchivePath  string
	Transactions int
	Warnings     int
	ProcessTime  time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to the reports directory.
// It returns "" without writing when reports are disabled.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	if fm.ReportsDir == "" {
		return "", nil
	}

	summaryPath := filepath.Join(fm.ReportsDir, fmt.Sprintf("processing_summary_%s.txt", summary.StartTime.Format("20060102_150405")))

	err := WriteFileAtomic(summaryPath, func(w io.Writer) error {
		writer := bufio.NewWriter(w)

		fmt.Fprintf(writer, "OFX to CSV Converter - Processing Summary\n"+
			"================================================================================\n\n"+
			"Run Information:\n"+
			"  Run ID:         %s\n"+
			"  Start Time:     %s\n"+
			"  End Time:       %s\n"+
			"  Duration:       %s\n\n"+
			"Statistics:\n"+
			"  Total Files:        %d\n"+
			"  Successful:         %d\n"+
			"  Failed:             %d\n"+
			"  Total Transactions: %d\n"+
			"  Warnings:           %d\n\n",
			summary.RunID,
			summary.StartTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Sub(summary.StartTime).String(),
			summary.TotalFiles,
			summary.SuccessfulFiles,
			summary.FailedFiles,
			summary.TotalTransactions,
			summary.TotalWarnings)

		if len(summary.ProcessedFiles) > 0 {
			writer.WriteString("Successful Files:\n")
			writer.WriteString("--------------------------------------------------------------------------------\n")
			for _, pf := range summary.ProcessedFiles {
				fmt.Fprintf(writer, "  Input:        %s\n", pf.InputFile)
				fmt.Fprintf(writer, "  Output:       %s\n", pf.OutputFile)
				if pf.ArchivePath != "" {
					fmt.Fprintf(writer, "  Archived To:  %s\n", pf.ArchivePath)
				}
				fmt.Fprintf(writer, "  Transactions: %d\n", pf.Transactions)
				fmt.Fprintf(writer, "  Warnings:     %d\n", pf.Warnings)
				fmt.Fprintf(writer, "  Process Time: %s\n\n", pf.ProcessTime.String())
			}
		}

		if len(summary.FailedFilesList) > 0 {
			writer.WriteString("Failed Files:\n")
			writer.WriteString("--------------------------------------------------------------------------------\n")
			for _, ff := range summary.FailedFilesList {
				fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
				fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
			}
		}

		writer.WriteString("================================================================================\n" +
			"End of Summary\n")

		return writer.Flush()
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
