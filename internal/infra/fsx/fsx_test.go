package fsx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempLeft(t *testing.T, dir, name string) bool {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "."+name+".tmp-") {
			return true
		}
	}
	return false
}

func TestWriteFileAtomic_ReplacesAndNoTempLeft(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "myIndex.json")
	if err := os.WriteFile(p, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("准备旧文件失败：%v", err)
	}

	if err := WriteFileAtomic(p, []byte(`[{"title":"a","link":"b"}]`)); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != `[{"title":"a","link":"b"}]` {
		t.Fatalf("内容未被替换：%q", string(b))
	}
	if tempLeft(t, dir, "myIndex.json") {
		t.Fatalf("临时文件未清理")
	}
}

func TestWriteFileAtomic_CreatesParentDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data", "idx.json")
	if err := WriteFileAtomic(p, []byte("x")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("文件未写出：%v", err)
	}
}

func TestWriteFileAtomic_RenameFailKeepsOld(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "idx.json")
	if err := os.WriteFile(p, []byte("old"), 0o644); err != nil {
		t.Fatalf("准备旧文件失败：%v", err)
	}

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error { return os.ErrPermission }
	defer func() { renameFunc = old }()

	if err := WriteFileAtomic(p, []byte("new")); err == nil {
		t.Fatalf("期望失败，但得到 nil")
	}
	if tempLeft(t, dir, "idx.json") {
		t.Fatalf("临时文件未清理")
	}
	b, _ := os.ReadFile(p)
	if string(b) != "old" {
		t.Fatalf("失败时不应改动旧文件：%q", string(b))
	}
}

func TestWriteFileAtomic_TargetIsDir(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "idx.json")
	if err := os.Mkdir(p, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	err := WriteFileAtomic(p, []byte("x"))
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}
