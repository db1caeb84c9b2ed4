package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// ── zh_CN 词库 ──

var surnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "黄", "赵", "吴", "周",
	"徐", "孙", "马", "朱", "胡", "郭", "何", "高", "林", "罗",
	"郑", "梁", "谢", "宋", "唐", "许", "韩", "冯", "邓", "曹",
	"彭", "曾", "肖", "田", "董", "袁", "潘", "于", "蒋", "蔡",
	"欧阳", "司马", "上官",
}

var givenChars = []string{
	"伟", "芳", "娜", "秀", "敏", "静", "丽", "强", "磊", "军",
	"洋", "勇", "艳", "杰", "娟", "涛", "明", "超", "霞", "平",
	"刚", "桂", "英", "华", "玉", "兰", "建", "国", "文", "辉",
	"婷", "雪", "琳", "浩", "宇", "欣", "怡", "佳", "子", "轩",
}

var roadNames = []string{
	"人民", "解放", "中山", "建设", "和平", "长江", "黄河", "朝阳", "文化", "光明",
	"新华", "胜利", "青年", "南京", "北京", "延安", "迎宾", "滨江", "科技", "学府",
}

var roadSuffixes = []string{"路", "街", "大道", "巷"}

var fallbackProvinces = []string{
	"河北省", "山西省", "辽宁省", "吉林省", "黑龙江省", "江苏省", "浙江省", "安徽省",
	"福建省", "江西省", "山东省", "河南省", "湖北省", "湖南省", "广东省", "海南省",
	"四川省", "贵州省", "云南省", "陕西省", "甘肃省", "青海省",
}

var fallbackCities = []string{
	"石家庄市", "太原市", "沈阳市", "长春市", "哈尔滨市", "南京市", "杭州市", "合肥市",
	"福州市", "南昌市", "济南市", "郑州市", "武汉市", "长沙市", "广州市", "海口市",
	"成都市", "贵阳市", "昆明市", "西安市", "兰州市", "西宁市",
}

var fallbackDistricts = []string{
	"城东区", "城西区", "新城区", "高新区", "经开区", "开发区", "滨湖区", "江北区",
	"南湖区", "金水区", "天河区", "武侯区", "雁塔区", "鼓楼区", "江宁区", "龙华区",
}

var mobilePrefixes = []string{
	"130", "131", "132", "133", "135", "136", "137", "138", "139",
	"150", "151", "152", "155", "157", "158", "159",
	"170", "176", "177", "180", "181", "182", "185", "186", "187", "188", "189",
}

func pick(r *rand.Rand, pool []string) string {
	return pool[r.IntN(len(pool))]
}

// between 闭区间 [lo, hi]
func between(r *rand.Rand, lo, hi int64) int64 {
	return lo + r.Int64N(hi-lo+1)
}

func fakeName(r *rand.Rand) string {
	name := pick(r, surnames) + pick(r, givenChars)
	if r.IntN(2) == 0 {
		name += pick(r, givenChars)
	}
	return name
}

func fakeStreetAddress(r *rand.Rand) string {
	return fmt.Sprintf("%s%s%d号", pick(r, roadNames), pick(r, roadSuffixes), between(r, 1, 999))
}

func fakePostCode(r *rand.Rand) string {
	return fmt.Sprintf("%06d", r.IntN(1_000_000))
}

func fakeMobile(r *rand.Rand) string {
	return fmt.Sprintf("%s%08d", pick(r, mobilePrefixes), r.IntN(100_000_000))
}

// fakeCoordinate 在 [-limit, limit] 上均匀取值，保留 6 位小数
func fakeCoordinate(r *rand.Rand, limit float64) float64 {
	v := r.Float64()*2*limit - limit
	return math.Round(v*1e6) / 1e6
}
