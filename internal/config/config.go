package config

type Config struct {
	Session SessionConf `json:"session"`
	Alert   AlertConf   `json:"alert"`
	Auth    AuthConf    `json:"auth"`
}

type SessionConf struct {
	IdleMinutes   int    `json:"idle_minutes"`   // 会话空闲多少分钟后标记为废弃，默认30
	SweepCronSpec string `json:"sweep_cron"`     // 清理任务cron表达式，默认每5分钟
	AlertCronSpec string `json:"alert_cron"`     // 费用告警cron表达式，默认每天0点
}

type AlertConf struct {
	Enabled            bool    `json:"enabled"`              // 是否启用费用告警
	Telegram           TgConf  `json:"telegram"`             // Telegram通知配置
	DailyCostThreshold float64 `json:"daily_cost_threshold"` // 单项目单日费用阈值（美元）
}

type TgConf struct {
	Token  string `json:"token"`
	ChatID string `json:"chat_id"`
}

type AuthConf struct {
	JWTSecret string `json:"jwt_secret"` // 为空时随机生成，重启后已签发token失效
}
