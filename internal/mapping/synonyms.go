package mapping

// columnSynonyms is the curated bilingual (English/Korean) alias table,
// keyed by lowercased destination column name. A source header matches when
// its lowercased text contains one of the listed synonyms.
//
// Keep entries specific: a too-short synonym ("번호", "name") bleeds into
// unrelated headers through the contains check.
var columnSynonyms = map[string][]string{
	"id": {
		"예약번호", "예약 번호", "booking no", "booking number", "reservation no", "reservation number",
	},
	"customer_name": {
		"고객명", "고객 이름", "예약자명", "성명",
	},
	"customer_phone": {
		"전화번호", "연락처", "휴대폰", "핸드폰",
	},
	"customer_email": {
		"이메일", "메일주소", "e-mail",
	},
	"tour_date": {
		"투어일", "투어 날짜", "이용일", "출발일",
	},
	"product_name": {
		"상품명", "투어명", "상품 이름",
	},
	"pickup_location": {
		"픽업", "픽업장소", "탑승장소",
	},
	"adults": {
		"성인", "대인",
	},
	"children": {
		"아동", "소인", "어린이",
	},
	"infants": {
		"유아",
	},
	"total_price": {
		"총금액", "결제금액", "합계",
	},
	"status": {
		"예약상태", "진행상태",
	},
	"memo": {
		"메모", "비고", "요청사항",
	},
	"guide_name": {
		"가이드", "담당 가이드",
	},
	"vehicle_no": {
		"차량번호", "차량 번호",
	},
	"capacity": {
		"정원", "탑승인원",
	},
	"languages": {
		"언어", "구사언어",
	},
	"created_at": {
		"등록일", "접수일",
	},
}
