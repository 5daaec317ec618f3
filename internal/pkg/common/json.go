package common

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	dec := json.NewDecoder(strings.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	if dec.More() {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

// UnwrapJSONString 若輸入本身是一個 JSON 字串（雙重編碼），回傳其內容；
// 否則原樣回傳。
func UnwrapJSONString(data string) (string, error) {
	trimmed := strings.TrimSpace(data)
	if !strings.HasPrefix(trimmed, `"`) {
		return data, nil
	}
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
		return "", fmt.Errorf("decode double-encoded payload: %w", err)
	}
	return inner, nil
}

