package file

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/songreplay/util"
)

// FileNumToSongPath numbers the songs of a batch so outputs of songs with the
// same name do not collide.
type FileNumToSongPath map[uint32]string

func CreateFileNumMap(paths []string) FileNumToSongPath {
	res := make(FileNumToSongPath)
	for i, v := range paths {
		res[uint32(i)] = v
	}
	return res
}

// Nums lists the file numbers in ascending order.
func (m FileNumToSongPath) Nums() []uint32 {
	nums := util.GetKeys(m)
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}

// OutputPath is where the output of file num goes in dir, e.g.
// out/003-autumn-leaves.wav.
func (m FileNumToSongPath) OutputPath(dir string, num uint32, ext string) string {
	base := filepath.Base(m[num])
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%03d-%s%s", num, base, ext))
}
