// Package cypher holds the Cypher scripts used by the graph loader.
package cypher

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed *.cql
var files embed.FS

// 所有脚本在包初始化时解析一次，模板错误会直接在启动阶段暴露。
var templates = template.Must(template.New("cypher").ParseFS(files, "*.cql"))

// MustTemplate 渲染指定脚本，data 提供 LabelPattern/RelType 等占位符。
func MustTemplate(name string, data any) string {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		panic(fmt.Errorf("render cypher %s: %w", name, err))
	}
	return sb.String()
}

// MustAsset 返回脚本原文。
func MustAsset(name string) string {
	b, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Errorf("load cypher %s: %w", name, err))
	}
	return string(b)
}

// Statements 按分号拆分脚本，忽略空语句。
func Statements(name string) []string {
	var out []string
	for _, raw := range strings.Split(MustAsset(name), ";") {
		if stmt := strings.TrimSpace(raw); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
