package kernel

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParsePackageList splits a newline-separated package list, dropping blank
// lines and surrounding whitespace.
func ParsePackageList(s string) []string {
	var pkgs []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			pkgs = append(pkgs, line)
		}
	}
	return pkgs
}

// PreloadProgram builds the Python program that loads wheel packages into a
// Pyodide kernel. Package references are resolved against base. Packages
// the kernel already loaded are skipped, and the program removes the names
// it defines when done.
func PreloadProgram(pkgs []string, base *url.URL) (string, error) {
	quoted := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		ref, err := url.Parse(p)
		if err != nil {
			return "", fmt.Errorf("parse package url %q: %w", p, err)
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		quoted = append(quoted, strconv.Quote(ref.String()))
	}

	var b strings.Builder
	b.WriteString("import pyodide_js as _pjs\n")
	b.WriteString("import pyodide as _p\n")
	b.WriteString("_package_list=[" + strings.Join(quoted, ",") + "]\n")
	b.WriteString("_package_list=[x for x in _package_list if x not in set((_pjs.loadedPackages.to_py()).keys())]\n")
	b.WriteString("print(_package_list)\n")
	b.WriteString("await _pjs.loadPackage(_package_list)\n")
	b.WriteString("del _package_list\n")
	b.WriteString("del _pjs\n")
	b.WriteString("del _p\n")
	return b.String(), nil
}
