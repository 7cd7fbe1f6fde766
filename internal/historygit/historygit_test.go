package historygit

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dcg-project/dcg/internal/history"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func setupRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)

	repo := t.TempDir()
	if err := ensureGitRepo(repo); err != nil {
		t.Fatalf("ensureGitRepo: %v", err)
	}
	if err := ensureGitIdentity(repo); err != nil {
		t.Fatalf("ensureGitIdentity: %v", err)
	}

	if err := os.WriteFile(filepath.Join(repo, "README.txt"), []byte("hi\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := gitAdd(repo, "README.txt"); err != nil {
		t.Fatalf("gitAdd: %v", err)
	}
	if committed, err := gitCommitIfNeeded(repo, "init"); err != nil || !committed {
		t.Fatalf("gitCommitIfNeeded: committed=%v err=%v", committed, err)
	}

	return repo
}

func TestExpandUserPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if _, err := expandUserPath(""); err == nil {
		t.Fatalf("expected error for empty path")
	}

	got, err := expandUserPath("~")
	if err != nil || got != home {
		t.Fatalf("expandUserPath(~)=%q err=%v want %q", got, err, home)
	}

	got, err = expandUserPath("~/x/y")
	if err != nil {
		t.Fatalf("expandUserPath(~/x/y): %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Fatalf("expandUserPath(~/x/y)=%q", got)
	}
}

func TestRepoHelpers(t *testing.T) {
	repo := setupRepo(t)

	sub := filepath.Join(repo, "subdir")
	if err := os.MkdirAll(sub, 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if !IsRepo(sub) {
		t.Fatalf("expected IsRepo(sub)=true")
	}
	if IsRepo(t.TempDir()) {
		t.Fatalf("expected IsRepo(non-repo)=false")
	}

	root, err := GetRoot(sub)
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if root != repo {
		t.Fatalf("GetRoot=%q want %q", root, repo)
	}

	branch, err := GetBranch(sub)
	if err != nil {
		t.Fatalf("GetBranch: %v", err)
	}
	if strings.TrimSpace(branch) == "" || branch == "HEAD" {
		t.Fatalf("unexpected branch: %q", branch)
	}
}

func TestInstallHook(t *testing.T) {
	repo := setupRepo(t)

	if err := InstallHook(repo); err != nil {
		t.Fatalf("InstallHook: %v", err)
	}

	hookPath := filepath.Join(repo, ".git", "hooks", "pre-commit")
	data, err := os.ReadFile(hookPath)
	if err != nil {
		t.Fatalf("read hook: %v", err)
	}
	if !strings.Contains(string(data), "dcg hook pre-commit") {
		t.Fatalf("unexpected hook content: %q", string(data))
	}
	info, err := os.Stat(hookPath)
	if err != nil {
		t.Fatalf("stat hook: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("expected hook to be executable; mode=%v", info.Mode().Perm())
	}
}

func TestInstallHook_NonRepoErrors(t *testing.T) {
	nonRepo := t.TempDir()
	if err := InstallHook(nonRepo); err == nil {
		t.Fatalf("expected error when installing hook outside git repo")
	}
}

func TestHistoryRepo_InitAndCommitRecord(t *testing.T) {
	repoPath := t.TempDir()
	requireGit(t)

	repo := &HistoryRepo{Path: repoPath}
	if err := repo.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, dir := range []string{"records", "batches"} {
		if _, err := os.Stat(filepath.Join(repoPath, dir)); err != nil {
			t.Fatalf("expected %s dir: %v", dir, err)
		}
	}

	if name, err := runGit(repoPath, "config", "--get", "user.name"); err != nil || name != defaultHistoryAuthorName {
		t.Fatalf("expected history author name=%q got %q err=%v", defaultHistoryAuthorName, name, err)
	}

	when := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	rec := &history.Record{
		SchemaVersion: history.SchemaVersion,
		Timestamp:     when,
		RuleID:        "core.git:reset-hard",
		PackID:        "core.git",
		Severity:      "high",
		ResponseLevel: "soft_block",
		CommandHash:   history.ComputeCommandHash("git reset --hard"),
		Allowed:       false,
	}

	committed, abs, err := repo.CommitRecord(rec)
	if err != nil {
		t.Fatalf("CommitRecord: %v", err)
	}
	if !committed {
		t.Fatalf("expected commit")
	}
	if _, err := os.Stat(abs); err != nil {
		t.Fatalf("expected record file: %v", err)
	}

	// Idempotency: recommitting byte-identical content produces no diff.
	committed, _, err = repo.CommitRecord(rec)
	if err != nil {
		t.Fatalf("CommitRecord second time: %v", err)
	}
	if committed {
		t.Fatalf("expected committed=false when no diff")
	}
}

func TestHistoryRepo_CommitBatch(t *testing.T) {
	requireGit(t)
	repo := &HistoryRepo{Path: t.TempDir()}

	batch := []history.Record{
		{SchemaVersion: 1, RuleID: "a", CommandHash: "h1"},
		{SchemaVersion: 1, RuleID: "b", CommandHash: "h2"},
	}
	committed, abs, err := repo.CommitBatch(batch)
	if err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}
	if !committed {
		t.Fatalf("expected commit")
	}
	if _, err := os.Stat(abs); err != nil {
		t.Fatalf("expected batch file: %v", err)
	}
}

func TestHistoryRepo_ErrorCases(t *testing.T) {
	requireGit(t)

	var nilRepo *HistoryRepo
	if err := nilRepo.Init(); err == nil {
		t.Fatalf("expected error for nil history repo")
	}

	repo := &HistoryRepo{}
	if err := repo.Init(); err == nil {
		t.Fatalf("expected error for empty history repo path")
	}

	fileRoot := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(fileRoot, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	repo = &HistoryRepo{Path: fileRoot}
	if err := repo.Init(); err == nil {
		t.Fatalf("expected error for file history repo path")
	}

	repo = &HistoryRepo{}
	if _, _, err := repo.CommitRecord(&history.Record{RuleID: "r"}); err == nil {
		t.Fatalf("expected CommitRecord error when Init fails")
	}

	repo.Path = t.TempDir()
	if _, _, err := repo.CommitRecord(nil); err == nil {
		t.Fatalf("expected error for nil record")
	}
	if _, _, err := repo.CommitBatch(nil); err == nil {
		t.Fatalf("expected error for empty batch")
	}

	if _, err := repo.writeJSON("", map[string]any{"a": 1}); err == nil {
		t.Fatalf("expected error for empty relPath")
	}
	if _, err := repo.writeJSON("bad.json", make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestHistoryRepo_ConstructorsAndHelpers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if _, err := NewHistoryRepo(""); err == nil {
		t.Fatalf("expected error for empty path")
	}

	repo, err := NewHistoryRepo("~/audit")
	if err != nil {
		t.Fatalf("NewHistoryRepo: %v", err)
	}
	if repo.Path != filepath.Join(home, "audit") {
		t.Fatalf("unexpected expanded path: %q", repo.Path)
	}

	if got := yearMonthPath(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)); got != filepath.Join("2025", "03") {
		t.Fatalf("yearMonthPath=%q", got)
	}

	if got := truncateForCommit("a\nb\rc", 4); strings.ContainsAny(got, "\n\r") {
		t.Fatalf("expected newlines removed, got %q", got)
	}
	if got := truncateForCommit("abcdef", 0); got != "" {
		t.Fatalf("expected empty for max<=0, got %q", got)
	}
	if got := truncateForCommit("abcdef", 3); got != "abc" {
		t.Fatalf("expected max<=3 to hard truncate, got %q", got)
	}

	if got := DefaultHistoryGitPath(home); got != filepath.Join(home, ".config", "dcg", "audit") {
		t.Fatalf("DefaultHistoryGitPath=%q", got)
	}
}
