package util

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
)

func RecreateOutputDir(dir string) {
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0777); err != nil {
		panic("Could not RecreateOutputDir: " + err.Error())
	}
}

var SongExtensions = []string{".yaml", ".yml", ".mid", ".midi"}

func HasSongExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range SongExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// GatherAllSongPaths walks path for sheet and MIDI files. A maxNum of 0 means
// no limit. A path naming a single file is returned as is.
func GatherAllSongPaths(path string, maxNum int) []string {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			panic("Error walking: " + err.Error())
		}
		if !d.IsDir() && HasSongExtension(s) {
			if maxNum == 0 || len(res) < maxNum {
				res = append(res, s)
			}
		}
		return nil
	}
	filepath.WalkDir(path, walk)
	return res
}

func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}



// SortedUnique returns the distinct values of nums in ascending order.
func SortedUnique[A constraints.Ordered](nums []A) []A {
	seen := make(map[A]bool, len(nums))
	res := make([]A, 0, len(nums))
	for _, v := range nums {
		if !seen[v] {
			seen[v] = true
			res = append(res, v)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func Min[A constraints.Ordered](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Max[A constraints.Ordered](num1 A, num2 A) A {
	if num1 < num2 {
		return num2
	}
	return num1
}

func Clamp[A constraints.Ordered](num, lo, hi A) A {
	return Max(lo, Min(num, hi))
}

