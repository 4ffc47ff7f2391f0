// Package xconf 基于 koanf 的配置加载。
//
// 支持 YAML（.yaml/.yml）和 JSON（.json），可从文件或内存数据创建。
// xconf 只负责加载、反序列化和热重载；字段校验与默认值由使用方处理。
//
//	cfg, err := xconf.New("/etc/xroll/xroll.yaml")
//	if err != nil {
//		return err
//	}
//	var rc RotateConfig
//	if err := cfg.Unmarshal("rotate", &rc); err != nil {
//		return err
//	}
//
// # 热重载
//
// [Watch] 基于 fsnotify 监视配置文件，变更在防抖间隔后触发 Reload 并调用回调。
// 重载失败时保留旧配置，错误通过回调传出。
//
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) { ... })
//	if err != nil {
//		return err
//	}
//	go w.Run(ctx)
//
// Unmarshal 使用 mapstructure 并允许弱类型转换（如 "3" → 3）。
package xconf
