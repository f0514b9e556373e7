package service

import "log"

// Notifier 向外部通知系统投递奖励事件。
// 投递在账本事务提交之后发生，失败不会回滚已提交的余额变更。
type Notifier interface {
	Notify(userID uint, event, message string)
}

// LogNotifier 把事件打到标准日志，是外部投递器接入前的默认实现。
type LogNotifier struct{}

// Notify 实现 Notifier
func (LogNotifier) Notify(userID uint, event, message string) {
	log.Printf("notify user %d [%s]: %s", userID, event, message)
}
