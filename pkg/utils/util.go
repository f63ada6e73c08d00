package utils

import "strings"

// SeedToPtrInt32 は *int64 のシード値を SDK 用の *int32 に変換します。
// nil の場合は nil を返します。範囲外の値は上位ビットが切り捨てられます。
func SeedToPtrInt32(seed *int64) *int32 {
	if seed == nil {
		return nil
	}
	v := int32(*seed)
	return &v
}

// SplitAndTrim は区切り文字で分割し、前後の空白を除いた空でない要素だけを返します。
func SplitAndTrim(s, sep string) []string {
	var out []string
	for _, v := range strings.Split(s, sep) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
