package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// WriteFileAtomic 一時ファイルに書いてから rename で置き換える
func WriteFileAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(payload); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := replaceFile(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

// replaceFile Windows では既存ファイルへの rename が失敗するので退避してから差し替える
func replaceFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if _, statErr := os.Stat(dst); statErr != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	backup := dst + ".bak.tmp"
	_ = os.Remove(backup)
	if backupErr := os.Rename(dst, backup); backupErr != nil {
		return fmt.Errorf("failed to backup existing file: %w (original rename err: %v)", backupErr, err)
	}
	if renameErr := os.Rename(src, dst); renameErr != nil {
		_ = os.Rename(backup, dst)
		return fmt.Errorf("failed to rename temp file after backup: %w", renameErr)
	}
	_ = os.Remove(backup)
	return nil
}

// WriteFilesAtomic dir 配下に name -> payload を順に書き出す
// 途中で失敗した場合、それまでに書いたファイルは残る
func WriteFilesAtomic(dir string, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := WriteFileAtomic(filepath.Join(dir, name), files[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
