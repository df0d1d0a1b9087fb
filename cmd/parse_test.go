// File: cmd/parse_test.go
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCmd_Post(t *testing.T) {
	blob := "张三\n今天天气不错\n包含3张图片\n10:30\n赞：李四，王五\n评论\n李四：好看\n王五 回复 李四：同意\n"

	out, err := runCommand(t, blob, "parse", "post")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "张三", got["publisher"])
	assert.Equal(t, "10:30", got["timestamp"])
	assert.Equal(t, "今天天气不错", got["content"])
	assert.EqualValues(t, 3, got["image_count"])
	assert.Equal(t, []any{"李四", "王五"}, got["likes"])
	comments, ok := got["comments"].([]any)
	require.True(t, ok)
	require.Len(t, comments, 2)
	assert.Equal(t, "李四", comments[1].(map[string]any)["reply_to"])
}

func TestParseCmd_FieldOrder(t *testing.T) {
	out, err := runCommand(t, "", "parse", "session", "--compact", "文件传输助手", "[3条]")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"文件传输助手","unread_count":3,"raw":"文件传输助手\n[3条]"}`+"\n", out)
}

func TestParseCmd_Comment(t *testing.T) {
	out, err := runCommand(t, "", "parse", "comment", "--compact", "王五 回复 李四：同意")
	require.NoError(t, err)
	assert.JSONEq(t, `{"author":"王五","content":"同意","reply_to":"李四","raw":"王五 回复 李四：同意"}`, out)
}

func TestParseCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "likes.txt")
	require.NoError(t, os.WriteFile(path, []byte("赞：甲，乙\n"), 0o644))

	out, err := runCommand(t, "", "parse", "likes", "--compact", "--file", path)
	require.NoError(t, err)
	assert.JSONEq(t, `["甲","乙"]`, out)

	_, err = runCommand(t, "", "parse", "likes", "--file", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestParseCmd_English(t *testing.T) {
	out, err := runCommand(t, "", "parse", "likes", "--lang", "en", "--compact", "Like: Alice, Bob")
	require.NoError(t, err)
	assert.JSONEq(t, `["Alice","Bob"]`, out)
}

func TestParseCmd_Timestamp(t *testing.T) {
	out, err := runCommand(t, "昨天\n你好", "parse", "timestamp", "-f", "-", "--compact")
	require.NoError(t, err)
	assert.JSONEq(t, `{"昨天":true,"你好":false}`, out)
}
