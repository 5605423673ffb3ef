package fetch

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCookieJar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	content := "# Netscape HTTP Cookie File\n" +
		".instagram.com\tTRUE\t/\tTRUE\t2147483647\tsessionid\tabc123\n" +
		".instagram.com\tTRUE\t/\tTRUE\t2147483647\tcsrftoken\txyz789\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	jar, err := loadCookieJar(path)
	if err != nil {
		t.Fatalf("loadCookieJar error: %v", err)
	}

	target, _ := url.Parse("https://instagram.com/")
	cookies := jar.Cookies(target)
	if len(cookies) != 2 {
		t.Fatalf("got %d cookies, want 2", len(cookies))
	}
}

func TestLoadCookieJarMissingFile(t *testing.T) {
	_, err := loadCookieJar(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for a missing file")
	}
	if KindOf(err) != KindAuthRequired {
		t.Errorf("kind = %v, want KindAuthRequired", KindOf(err))
	}
}

func TestLoadCookieJarEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(path, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := loadCookieJar(path)
	if err == nil {
		t.Fatal("expected error for a file without cookies")
	}
	if KindOf(err) != KindAuthRequired {
		t.Errorf("kind = %v, want KindAuthRequired", KindOf(err))
	}
}

func TestLoadCookieJarUnconfigured(t *testing.T) {
	_, err := loadCookieJar("")
	if KindOf(err) != KindAuthRequired {
		t.Errorf("kind = %v, want KindAuthRequired", KindOf(err))
	}
}
