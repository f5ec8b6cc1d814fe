package svc

import "errors"

// ErrUnknownSource 错误：配置的价格源未注册
var ErrUnknownSource = errors.New("unknown price source")

// ErrStorageInitFailed 错误：存储初始化失败
var ErrStorageInitFailed = errors.New("storage initialization failed")
