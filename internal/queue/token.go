package queue

// Token 队列元素：一批要生成的订单数，或通知 worker 退出的哨兵。
type Token struct {
	Seq  int
	Size int
	Stop bool
}

var stopToken = Token{Stop: true}
