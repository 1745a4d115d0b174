package input

import (
	"os"
)

// preCheckCache 预检查缓存目录
// 功能：验证输入缓存目录的有效性，决定是否启用缓存功能
// 参数：cacheDir-缓存目录路径
// 返回：true表示启用缓存，false表示禁用缓存
func preCheckCache(cacheDir string) bool {
	if cacheDir == "" {
		log.Info("disable input cache")
		return false
	}
	if stat, err := os.Stat(cacheDir); err == nil && stat.IsDir() {
		log.Infof("enable input cache at %s", cacheDir)
		return true
	}
	log.Errorf("disable input cache because invalid dir %s (not exist or file)", cacheDir)
	return false
}

// writeCache 写入缓存文件，失败只记录日志
func writeCache(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warnf("failed to write cache %s: %v", path, err)
		return
	}
	log.Infof("cache saved to %s", path)
}
