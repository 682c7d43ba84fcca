// Package crawlers 提供爬取引擎使用的队列、集合、结果存储和抓取组件
//
// # 核心组件
//
// ## Queue (待访问队列)
//
// 两种实现遵循同一契约 Push/Pop/Peek/IsEmpty:
//   - LocalQueue: 进程内栈,后进先出(深度优先),不加锁
//   - RedisQueue: Redis列表,RPUSH入队、LPOP出队(先进先出),多个工作进程共享
//
// LocalQueue为空时Pop返回 models.ErrEmptyQueue,表示爬取完成;
// RedisQueue为空时Pop返回ok=false,只表示当前工作进程暂时没有任务。
//
//	q := NewRedisQueue(client, "")   // 键名取自 SITEMAP_QUEUE_KEY
//	_ = q.Push(ctx, "http://example.com/")
//	url, ok, err := q.Pop(ctx)
//
// ## VisitedSet (已访问集合)
//
// 入队时的去重过滤器。默认每个工作进程使用独立的LocalSet,
// 也可以通过RedisSet在进程池中共享。
//
// ## ResultStore (结果存储)
//
// MemoryStore按首次登记顺序保存 URL -> PageRecord,保证相同爬取产生相同的sitemap。
//
// ## Normalizer / IsExternal
//
//	n := NewNormalizer(false)
//	link, _ := n.Normalize("http://example.com/aa/bb/", "../cc.html#top")
//	// http://example.com/aa/cc.html
//	IsExternal("http://example.com/aa/", link) // true
//
// ## HTTPClient / LinkExtractor
//
// HTTPClient基于Colly抓取页面并跟随重定向,LinkExtractor用goquery按文档顺序提取a[href]。
// IsHTML、LastModified和CanCrawl判断页面是否可以继续提取链接。
//
// # 并发安全
//
// LocalQueue、LocalSet和MemoryStore只能在单个goroutine中使用。
// RedisQueue和RedisSet的原子性由Redis保证。
package crawlers
