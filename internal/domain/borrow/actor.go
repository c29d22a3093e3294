package borrow

// Actor 发起请求的身份与能力
// 由接口层根据登录信息构造后传入，领域与应用层不关心认证细节
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// CanManage 读者本人或管理员可以查看、归还该借阅记录
func (a Actor) CanManage(b *Borrow) bool {
	return a.IsAdmin || b.IsOwnedBy(a.UserID)
}
