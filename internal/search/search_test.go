package search

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"giftbook/internal/core"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  张三   李四 ":  "张三 李四",
		"":             "",
		"   ":          "",
		"１２００":         "1200",
		"王五　红包":   "王五 红包",
		"a\t\tb\nc":    "a b c",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitTerms(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"张 三", []string{"张三"}},
		{"张 三 200", []string{"张三", "200"}},
		{"200 张 三 红包 李", []string{"200", "张三", "红包", "李"}},
		{"a b", []string{"a", "b"}},
		{"", nil},
	}
	for _, tc := range cases {
		if got := SplitTerms(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitTerms(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildCondition(t *testing.T) {
	c := BuildCondition("")
	if c.Where != "is_deleted = 0" || len(c.Args) != 0 {
		t.Fatalf("empty keyword: %+v", c)
	}

	c = BuildCondition(" 张 三  200 ")
	if strings.Count(c.Where, " AND ") != 2 || !strings.HasSuffix(c.Where, "is_deleted = 0") {
		t.Fatalf("unexpected where %q", c.Where)
	}
	want := []any{"%张三%", "%张三%", "%张三%", "%张三%", "%200%", int64(20000), "%200%"}
	if !reflect.DeepEqual(c.Args, want) {
		t.Fatalf("args = %#v, want %#v", c.Args, want)
	}

	c = BuildCondition("50%_off")
	if c.Args[0] != `%50\%\_off%` {
		t.Fatalf("wildcards not escaped: %q", c.Args[0])
	}

	c = BuildCondition("99999999999999999999")
	if c.Args[1] != int64(-1) {
		t.Fatalf("oversized number should not match an amount, got %v", c.Args[1])
	}
}

func TestBuildCriteria(t *testing.T) {
	minA, maxA := core.Money{Cents: 100}, core.Money{Cents: 50000}
	wechat := core.PaymentWeChat
	c := Build(Criteria{
		MinAmount:   &minA,
		MaxAmount:   &maxA,
		PaymentType: &wechat,
		StartDate:   time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	wantWhere := "amount_cents >= ? AND amount_cents <= ? AND payment_type = ? AND create_time >= ? AND create_time < ? AND is_deleted = 0"
	if c.Where != wantWhere {
		t.Fatalf("where = %q", c.Where)
	}
	wantArgs := []any{int64(100), int64(50000), 1, "2024-01-01 00:00:00", "2024-02-01 00:00:00"}
	if !reflect.DeepEqual(c.Args, wantArgs) {
		t.Fatalf("args = %#v", c.Args)
	}
}

func TestFilter(t *testing.T) {
	at := func(d int) time.Time { return time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC) }
	records := []core.Record{
		{ID: 1, GuestName: "张三", Amount: core.Money{Cents: 20000}, AmountChinese: "贰佰元整", CreateTime: at(1)},
		{ID: 2, GuestName: "李四", Amount: core.Money{Cents: 50000}, AmountChinese: "伍佰元整", Remark: "同学", PaymentType: core.PaymentWeChat, CreateTime: at(2)},
		{ID: 3, GuestName: "王五", Amount: core.Money{Cents: 20000}, AmountChinese: "贰佰元整", ItemDescription: "Red Envelope", CreateTime: at(3)},
		{ID: 4, GuestName: "张三丰", Amount: core.Money{Cents: 100}, AmountChinese: "壹元整", IsDeleted: true, CreateTime: at(4)},
	}
	ids := func(rs []core.Record) []int64 {
		var out []int64
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	wechat := core.PaymentWeChat
	cases := []struct {
		name string
		c    Criteria
		want []int64
	}{
		{"all", Criteria{}, []int64{1, 2, 3}},
		{"merged name", Criteria{Keyword: "张 三"}, []int64{1}},
		{"amount", Criteria{Keyword: "200"}, []int64{1, 3}},
		{"chinese amount", Criteria{Keyword: "伍佰"}, []int64{2}},
		{"case insensitive item", Criteria{Keyword: "red"}, []int64{3}},
		{"all terms", Criteria{Keyword: "200 王"}, []int64{3}},
		{"payment", Criteria{PaymentType: &wechat}, []int64{2}},
		{"date range", Criteria{StartDate: at(2), EndDate: at(3)}, []int64{2, 3}},
		{"no match", Criteria{Keyword: "赵六"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ids(Filter(records, tc.c)); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
