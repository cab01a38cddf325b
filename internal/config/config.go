package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ErrCodeNotFound 表示显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// EnvPrefix 是环境变量前缀：APTEKAR_ADDR、APTEKAR_PROXY_URL ...
	EnvPrefix = "APTEKAR"
	// FileName 是配置文件基名（aptekar.yaml / aptekar.json）。
	FileName = "aptekar"

	DefaultAddr    = ":8000"
	DefaultTimeout = 5 * time.Minute
)

// Config 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type Config struct {
	Addr string
	// Version 为 nil 表示未设置（版本接口输出 null）。
	Version *string
	Debug   bool

	ProxyURL string
	Timeout  time.Duration

	CORSOrigins []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// New 创建带默认值与环境变量绑定的 viper 实例。CLI 在调用 Load 之前把 flag 绑定到它上面。
//
// 覆盖优先级（viper 固定）：flag > 环境变量 > 配置文件 > 默认值
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// 部署环境沿用裸 VERSION 变量。
	_ = v.BindEnv("version", "VERSION", EnvPrefix+"_VERSION")

	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("debug", false)
	v.SetDefault("proxy_url", "")
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("cors_origins", []string{"*"})
	return v
}

// Options 描述配置文件的发现方式。
type Options struct {
	// File 非空：必须存在（否则 config_not_found）。
	File string
	// Dir 是 File 为空时查找 aptekar.{yaml,json} 与 .env 的目录；为空时用 cwd。
	Dir string
}

// Load 依次加载 .env、配置文件，并读出最终配置。
//
// 约束：
// - .env 与 aptekar.* 都是可选的；显式 --config 指向的文件必须存在
// - .env 不覆盖已存在的环境变量
func Load(v *viper.Viper, opts Options) (Config, error) {
	if v == nil {
		v = New()
	}
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "."
	}

	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
		}
	}

	cfgPath, err := readFile(v, opts.File, dir)
	if err != nil {
		return Config{}, err
	}
	return decode(v, cfgPath)
}

func readFile(v *viper.Viper, file, dir string) (string, error) {
	if file = strings.TrimSpace(file); file != "" {
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				return file, &Error{Code: ErrCodeNotFound, Path: file, Err: err}
			}
			return file, &Error{Code: ErrCodeInvalid, Path: file, Err: err}
		}
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return file, &Error{Code: ErrCodeInvalid, Path: file, Err: err}
		}
		return file, nil
	}

	v.SetConfigName(FileName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) {
			return "", nil
		}
		return v.ConfigFileUsed(), &Error{Code: ErrCodeInvalid, Path: v.ConfigFileUsed(), Err: err}
	}
	return v.ConfigFileUsed(), nil
}

func decode(v *viper.Viper, cfgPath string) (Config, error) {
	invalid := func(err error) (Config, error) {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	cfg := Config{
		Addr:     strings.TrimSpace(v.GetString("addr")),
		Debug:    v.GetBool("debug"),
		ProxyURL: strings.TrimSpace(v.GetString("proxy_url")),
		Timeout:  v.GetDuration("timeout"),
	}
	if cfg.Addr == "" {
		return invalid(errors.New("addr 不能为空"))
	}
	if v.IsSet("version") {
		ver := v.GetString("version")
		cfg.Version = &ver
	}
	if cfg.Timeout <= 0 {
		return invalid(fmt.Errorf("timeout 必须为正数：%q", v.GetString("timeout")))
	}
	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid(fmt.Errorf("proxy_url 无效：%q", cfg.ProxyURL))
		}
	}

	// 环境变量里的列表允许逗号或空格分隔。
	for _, o := range v.GetStringSlice("cors_origins") {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, part)
			}
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return cfg, nil
}
