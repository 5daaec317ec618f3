package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

// VolumeNotFound 無法從描述中解析出數量時的回傳值
const VolumeNotFound = -1.0

var (
	decimalPrefix = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	integerPrefix = regexp.MustCompile(`^\s*[+-]?\d+`)

	// 支援的 Unicode 分數符號
	vulgarFractions = map[string]float64{
		"¼": 0.25,
		"½": 0.5,
		"¾": 0.75,
		"⅓": 1.0 / 3.0,
		"⅔": 2.0 / 3.0,
		"⅕": 0.2,
		"⅖": 0.4,
		"⅗": 0.6,
		"⅘": 0.8,
	}
)

// firstToken 取第一個空白前的內容
func firstToken(text string) string {
	if i := strings.IndexByte(text, ' '); i >= 0 {
		return text[:i]
	}
	return text
}

// ParseVolume 從食材描述（如 "1/2 cups of milk"）解析數量。
// 以字元出現順序判斷格式："." 先出現視為小數，"/" 先出現視為分數。
func ParseVolume(text string) float64 {
	token := firstToken(text)

	for _, ch := range token {
		switch ch {
		case '.':
			return parseDecimal(token)
		case '/':
			return parseRatio(token)
		}
	}

	if v, ok := parseIntPrefix(token); ok {
		return float64(v)
	}
	if v, ok := vulgarFractions[token]; ok {
		return v
	}
	return VolumeNotFound
}

// ParseName 回傳第一個空白之後的內容；沒有空白時回傳空字串
func ParseName(text string) string {
	i := strings.IndexByte(text, ' ')
	if i < 0 {
		return ""
	}
	return text[i+1:]
}

// ParseLine 將一行自由文字食材轉為 Ingredient。
// 無法解析數量時以 0（未指定）代替，名稱為空時使用整行文字。
func ParseLine(text string) (Ingredient, error) {
	text = strings.TrimSpace(text)
	volume := ParseVolume(text)
	name := ParseName(text)
	if volume < 0 {
		volume = 0
		name = text
	}
	if strings.TrimSpace(name) == "" {
		name = text
	}
	return NewIngredient(name, volume, "")
}

func parseDecimal(token string) float64 {
	m := decimalPrefix.FindString(token)
	if m == "" {
		return VolumeNotFound
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return VolumeNotFound
	}
	return v
}

func parseRatio(token string) float64 {
	parts := strings.SplitN(token, "/", 2)
	num, ok := parseIntPrefix(parts[0])
	if !ok {
		return VolumeNotFound
	}
	den, ok := parseIntPrefix(parts[1])
	if !ok || den == 0 {
		return VolumeNotFound
	}
	return float64(num) / float64(den)
}

func parseIntPrefix(s string) (int64, bool) {
	m := integerPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimSpace(m), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
