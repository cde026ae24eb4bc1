package ioc

import "github.com/ksumesh431/new-relic-graphql/internal/app"

// ConfigPath 与 EnvFile 为空时使用 app 中的默认路径。
type ConfigPath string

type EnvFile string

// InitConfig 读取应用配置并校验。
func InitConfig(path ConfigPath, envFile EnvFile) (app.Config, error) {
	cfg, err := app.LoadConfig(string(path), string(envFile))
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
