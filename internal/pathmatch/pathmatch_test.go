package pathmatch

import "testing"

func TestMatch(t *testing.T) {
	set := MustCompile(
		"node_modules",
		"*.{foo,bar}",
		"/build",
		"docs/**/*.png",
		"tmp/",
		"# comment",
		"",
	)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"basename at root", "node_modules", true},
		{"basename nested", "web/node_modules", true},
		{"brace extension", "xxx.foo", true},
		{"brace extension nested", "a/b/xxx.bar", true},
		{"other extension", "xxx.baz", false},
		{"anchored at root", "build", true},
		{"anchored does not float", "src/build", false},
		{"double star", "docs/a/b/c.png", true},
		{"double star zero dirs", "docs/c.png", true},
		{"double star other dir", "img/c.png", false},
		{"trailing slash stripped", "x/tmp", true},
		{"root never matches", "", false},
		{"plain file", "main.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := set.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if set.Len() != 5 {
		t.Errorf("Len() = %d, want 5", set.Len())
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		wantErr  bool
	}{
		{"valid", []string{"*.go", "vendor"}, false},
		{"unclosed class", []string{"[abc"}, true},
		{"only slashes", []string{"//"}, true},
		{"empty list", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.patterns)
			if (err != nil) != tt.wantErr {
				t.Errorf("Compile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNilSet(t *testing.T) {
	var set *Set
	if set.Match("anything") {
		t.Error("nil Set should match nothing")
	}
}
